package catalog

import (
	"context"

	"zonebourse-go/internal/apiclient"
	"zonebourse-go/internal/model"
)

// Backend is the subset of the API client the catalog needs.
type Backend interface {
	ListBourses(ctx context.Context, auth apiclient.Auth) ([]model.Bourse, error)
	GetBourse(ctx context.Context, auth apiclient.Auth, id model.BourseID) (model.Bourse, error)
	CreateBourse(ctx context.Context, auth apiclient.Auth, upload model.BourseUpload) (model.Result, error)
	DeleteBourse(ctx context.Context, auth apiclient.Auth, id model.BourseID) (model.Result, error)
}

type Notifier interface {
	SendAlert(bourse model.Bourse)
}

// NopNotifier drops every alert.
type NopNotifier struct{}

func (NopNotifier) SendAlert(model.Bourse) {}
