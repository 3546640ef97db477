package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ChatRetentionWorker trims chat history on a schedule according to each
// user's auto_clear_history preference.
type ChatRetentionWorker struct {
	repo     ChatRepository
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewChatRetentionWorker(repo ChatRepository) *ChatRetentionWorker {
	w := &ChatRetentionWorker{
		repo:     repo,
		interval: time.Hour,
		stopChan: make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()

	return w
}

func (w *ChatRetentionWorker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stopChan:
			return
		}
	}
}

func (w *ChatRetentionWorker) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := w.repo.ApplyRetention(ctx)
	if err != nil {
		log.Error().Err(err).Msg("chat retention sweep failed")
		return
	}

	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("chat retention sweep")
	}
}

// Stop ends the worker and waits for an in-flight sweep to finish.
func (w *ChatRetentionWorker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
	log.Info().Msg("chat retention worker stopped")
}
