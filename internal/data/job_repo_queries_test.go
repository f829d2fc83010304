package data

import (
	"strings"
	"testing"

	"github.com/MrCreosote/user-and-job-state/internal/data/database"
	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
	"github.com/stretchr/testify/assert"
)

func whereOf(t *testing.T, req *model.ListJobsRequest) (string, []any) {
	t.Helper()
	query, args := database.BuildListQuery(buildJobListOptions(req))
	idx := strings.Index(query, " WHERE ")
	if !assert.GreaterOrEqual(t, idx, 0, query) {
		return "", nil
	}
	where := query[idx+len(" WHERE "):]
	where = strings.TrimSuffix(where, ` ORDER BY "id" ASC`)
	return where, args
}

func TestBuildJobListOptions_OwnedOnly(t *testing.T) {
	where, args := whereOf(t, &model.ListJobsRequest{User: "alice", AuthStrategy: model.DefaultAuthStrategy})
	assert.Equal(t, `"owner" = $1 AND service IS NOT NULL`, where)
	assert.Equal(t, []any{"alice"}, args)
}

func TestBuildJobListOptions_SharedServicesAndStage(t *testing.T) {
	services := []string{"s1", "s2"}
	where, args := whereOf(t, &model.ListJobsRequest{
		User:          "alice",
		AuthStrategy:  model.DefaultAuthStrategy,
		IncludeShared: true,
		Services:      services,
		Stages:        model.StageFilter{Running: true, Canceled: true},
	})
	assert.Equal(t,
		`(owner = $1 OR shared @> ARRAY[$1]::text[]) AND "service" = ANY ($2) AND (complete = false OR canceled_by IS NOT NULL)`,
		where)
	assert.Equal(t, []any{"alice", services}, args)
}

func TestBuildJobListOptions_CustomStrategy(t *testing.T) {
	params := []string{"1", "2"}
	where, args := whereOf(t, &model.ListJobsRequest{
		User:         "alice",
		AuthStrategy: "kbaseworkspace",
		AuthParams:   params,
		Stages:       model.StageFilter{Running: true, Complete: true, Canceled: true, Error: true},
	})
	assert.Equal(t, `"auth_strategy" = $1 AND "auth_param" = ANY ($2) AND service IS NOT NULL`, where)
	assert.Equal(t, []any{"kbaseworkspace", params}, args)
}

func TestBuildJobListOptions_CustomStrategyWithoutParamsMatchesNothing(t *testing.T) {
	where, _ := whereOf(t, &model.ListJobsRequest{User: "alice", AuthStrategy: "kbaseworkspace"})
	assert.Equal(t, `"auth_strategy" = $1 AND FALSE AND service IS NOT NULL`, where)
}
