package catalog

import (
	"context"
	"fmt"
	"strings"

	"zonebourse-go/internal/apiclient"
	"zonebourse-go/internal/logger"
	"zonebourse-go/internal/model"
)

type Service struct {
	backend  Backend
	notifier Notifier
}

func NewService(backend Backend, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{backend: backend, notifier: notifier}
}

// Listing is one load of the catalogue: the filtered grid plus stats over the
// whole set.
type Listing struct {
	Bourses []model.Bourse
	Stats   model.Stats
	Query   string
	Total   int
}

func (s *Service) List(ctx context.Context, auth apiclient.Auth, query string) (Listing, error) {
	all, err := s.backend.ListBourses(ctx, auth)
	if err != nil {
		return Listing{}, fmt.Errorf("list bourses: %w", err)
	}
	return Listing{
		Bourses: Filter(all, query),
		Stats:   model.ComputeStats(all),
		Query:   strings.TrimSpace(query),
		Total:   len(all),
	}, nil
}

func (s *Service) Detail(ctx context.Context, auth apiclient.Auth, id model.BourseID) (model.Bourse, error) {
	bourse, err := s.backend.GetBourse(ctx, auth, id)
	if err != nil {
		return model.Bourse{}, fmt.Errorf("get bourse %s: %w", id, err)
	}
	return bourse, nil
}

// Create forwards the upload and announces the new listing on success.
func (s *Service) Create(ctx context.Context, auth apiclient.Auth, upload model.BourseUpload) (model.Result, error) {
	result, err := s.backend.CreateBourse(ctx, auth, upload)
	if err != nil {
		return result, fmt.Errorf("create bourse: %w", err)
	}

	f := upload.Fields
	s.notifier.SendAlert(model.Bourse{
		Titre:         f.Titre,
		Description:   f.Description,
		Pays:          f.Pays,
		Universite:    f.Universite,
		NiveauEtude:   f.NiveauEtude,
		DomaineEtude:  f.DomaineEtude,
		MontantBourse: f.MontantBourse,
		DateLimite:    f.DateLimite,
	})
	logger.Info().Str("titre", f.Titre).Msg("bourse created")
	return result, nil
}

func (s *Service) Delete(ctx context.Context, auth apiclient.Auth, id model.BourseID) (model.Result, error) {
	result, err := s.backend.DeleteBourse(ctx, auth, id)
	if err != nil {
		return result, fmt.Errorf("delete bourse %s: %w", id, err)
	}
	logger.Info().Str("id", id.String()).Msg("bourse deleted")
	return result, nil
}
