package api_test

import (
	"context"
	"testing"

	"github.com/frahmantamala/grievance-portal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	doc, err := api.Load(context.Background())
	require.NoError(t, err)

	for _, path := range []string{
		"/grievances",
		"/grievances/{id}/upvote",
		"/auth/login",
		"/admin/grievances/{id}/status",
		"/admin/export",
	} {
		assert.NotNil(t, doc.Paths.Find(path), path)
	}
}
