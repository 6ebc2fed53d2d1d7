package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/repository"
	"github.com/noah-isme/seka-portal-api/internal/service"
)

func setupTaskService(t *testing.T) service.PortfolioTaskService {
	t.Helper()

	db := openTestDB(t)

	return service.NewPortfolioTaskService(
		repository.NewPortfolioTaskRepository(db),
		newTestValidator(),
		testLogger(),
	)
}

func TestTaskService_CreateAndGet(t *testing.T) {
	svc := setupTaskService(t)

	created, err := svc.Create(context.Background(), dto.PortfolioTaskCreateRequest{
		Title:       "Personal Portfolio",
		Description: "Build a personal portfolio site",
		ClassLevel:  "XI",
		Tags:        []string{"html", "css"},
	})
	require.NoError(t, err)
	require.True(t, created.Active)
	require.Equal(t, []string{"html", "css"}, created.Tags)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Personal Portfolio", got.Title)
}

func TestTaskService_DuplicateTitlePerClassRejected(t *testing.T) {
	svc := setupTaskService(t)

	req := dto.PortfolioTaskCreateRequest{Title: "Landing Page", ClassLevel: "X"}
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req)
	require.ErrorIs(t, err, service.ErrDuplicateTask)

	// Same title in another class level is fine.
	req.ClassLevel = "XI"
	_, err = svc.Create(context.Background(), req)
	require.NoError(t, err)
}

func TestTaskService_InstructionsSchemaValidated(t *testing.T) {
	svc := setupTaskService(t)

	valid := json.RawMessage(`{"brief":"make it responsive","steps":[{"title":"Layout","body":"Use flexbox"}]}`)
	created, err := svc.Create(context.Background(), dto.PortfolioTaskCreateRequest{
		Title:        "Responsive Layout",
		ClassLevel:   "X",
		Instructions: valid,
	})
	require.NoError(t, err)
	require.JSONEq(t, string(valid), string(created.Instructions))

	invalid := json.RawMessage(`{"steps":[{"body":"missing title"}]}`)
	_, err = svc.Create(context.Background(), dto.PortfolioTaskCreateRequest{
		Title:        "Broken Instructions",
		ClassLevel:   "X",
		Instructions: invalid,
	})
	require.ErrorIs(t, err, service.ErrInvalidInstructions)

	unknownField := json.RawMessage(`{"surprise":true}`)
	_, err = svc.Create(context.Background(), dto.PortfolioTaskCreateRequest{
		Title:        "Unknown Field",
		ClassLevel:   "X",
		Instructions: unknownField,
	})
	require.ErrorIs(t, err, service.ErrInvalidInstructions)
}

func TestTaskService_UpdatePartial(t *testing.T) {
	svc := setupTaskService(t)

	created, err := svc.Create(context.Background(), dto.PortfolioTaskCreateRequest{
		Title:      "Original Task",
		ClassLevel: "X",
	})
	require.NoError(t, err)

	inactive := false
	description := "now with a description"
	updated, err := svc.Update(context.Background(), created.ID, dto.PortfolioTaskUpdateRequest{
		Description: &description,
		Active:      &inactive,
	})
	require.NoError(t, err)
	require.Equal(t, "Original Task", updated.Title)
	require.Equal(t, description, updated.Description)
	require.False(t, updated.Active)
}

func TestTaskService_ListFilters(t *testing.T) {
	svc := setupTaskService(t)

	_, err := svc.Create(context.Background(), dto.PortfolioTaskCreateRequest{Title: "Task A", ClassLevel: "X"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), dto.PortfolioTaskCreateRequest{Title: "Task B", ClassLevel: "XI"})
	require.NoError(t, err)

	classX := "X"
	tasks, err := svc.List(context.Background(), &classX, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "Task A", tasks[0].Title)
}

func TestTaskService_DeleteMissing(t *testing.T) {
	svc := setupTaskService(t)

	err := svc.Delete(context.Background(), 12345)
	require.ErrorIs(t, err, service.ErrTaskNotFound)
}
