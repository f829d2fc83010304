// Package mocks provides mock implementations for testing the job and user state services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().GetByID(gomock.Any(), id).Return(job, nil)
package mocks

// Create, Start, Update, Complete, GetByID, GetUncompleted, Cancel, GetDeletable,
// Delete, ListServices, List, Share, Unshare
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/MrCreosote/user-and-job-state/internal/core JobRepository

// DeleteExpiredJobs
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=reaper_repository_mock.go github.com/MrCreosote/user-and-job-state/internal/core ReaperRepository

// Set, Get, Has, Remove, ListKeys, ListServices
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_state_repository_mock.go github.com/MrCreosote/user-and-job-state/internal/core UserStateRepository

// PublishJobEvent
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_event_publisher_mock.go github.com/MrCreosote/user-and-job-state/internal/core JobEventPublisher
