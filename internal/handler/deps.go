package handler

import (
	"parley/internal/app/chat"
	"parley/internal/app/message"
	"parley/internal/app/storage"
	"parley/internal/app/store"
	"parley/internal/configs"
)

// AppDeps bundles the collaborators the HTTP handlers need.
type AppDeps struct {
	Config  *configs.AppConfig
	Hub     *chat.Hub
	Service *message.Service
	Monitor *store.Monitor

	// Storage may be nil in development when no S3 settings are present;
	// the upload endpoints then reject requests.
	Storage storage.Service
}
