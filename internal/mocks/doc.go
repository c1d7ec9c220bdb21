// Package mocks provides shared test doubles for the auth and service
// interfaces.
//
// MockJWTService uses function fields with static fallbacks. The service
// mocks embed testify's mock.Mock:
//
//	tasks := new(mocks.TaskService)
//	tasks.On("Get", mock.Anything, id).Return(task, nil)
package mocks
