package app

import (
	"context"
	"log/slog"

	"knowdesk/internal/model"
	"knowdesk/internal/repository"
)

// IndexService resolves the organization's remote vector index. The Record
// Store's cached identifier is advisory: the remote resource can expire or
// be deleted out of band, so every reuse is preceded by a remote
// confirmation, and any confirmation failure falls through to creation.
type IndexService struct {
	stores  *repository.VectorStoreRepository
	gateway IndexGateway
	name    string
	logger  *slog.Logger
}

func NewIndexService(stores *repository.VectorStoreRepository, gateway IndexGateway, name string, logger *slog.Logger) *IndexService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexService{
		stores:  stores,
		gateway: gateway,
		name:    name,
		logger:  logger,
	}
}

// Resolve returns the identifier of a vector store that is known to exist
// remotely, creating one when the cache is empty or stale. Idempotent from
// the caller's perspective; concurrent callers may race and create two
// remote stores, in which case the most recently persisted one wins for
// future reads.
func (s *IndexService) Resolve(ctx context.Context) (string, error) {
	cached, err := s.stores.Active()
	if err != nil {
		s.logger.Error("read cached vector store failed", "error", err)
	}
	if cached != nil {
		if err := s.gateway.RetrieveVectorStore(ctx, cached.ID); err == nil {
			return cached.ID, nil
		} else {
			s.logger.Warn("cached vector store not confirmed, creating new one",
				"vector_store_id", cached.ID, "error", err)
		}
	}

	id, err := s.gateway.CreateVectorStore(ctx, s.name)
	if err != nil {
		return "", err
	}

	// The superseded row must not stay active: at most one active store is
	// authoritative, older ones linger as retired.
	if cached != nil {
		if err := s.stores.Retire(cached.ID); err != nil {
			s.logger.Error("retire stale vector store failed", "vector_store_id", cached.ID, "error", err)
		}
	}

	// Persist before returning so the next resolution finds the new id.
	// A store write failure is logged, not propagated: the remote index
	// exists and callers can use it for this operation.
	if err := s.stores.Save(&model.VectorStore{
		ID:     id,
		Name:   s.name,
		Status: model.VectorStoreStatusActive,
	}); err != nil {
		s.logger.Error("persist vector store failed", "vector_store_id", id, "error", err)
	} else {
		s.logger.Info("created vector store", "vector_store_id", id, "name", s.name)
	}
	return id, nil
}
