package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCollectionsCmd(t *testing.T) {
	out, err := run(t, "collections")
	require.NoError(t, err)

	assert.Contains(t, out, "camo\tcatch-all=uncategorised")
	assert.Contains(t, out, "  kids-collection")
}

func TestViewCmd_JSON(t *testing.T) {
	out, err := run(t, "view", "kids", "-q", "camo", "-s", "price-desc", "--json")
	require.NoError(t, err)

	var secs []struct {
		Category string `json:"category"`
		Products []struct {
			ID string `json:"id"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &secs))
	require.Len(t, secs, 2)
	assert.Equal(t, "kids-collection", secs[0].Category)
	require.Len(t, secs[0].Products, 1)
	assert.Equal(t, "hw-1002", secs[0].Products[0].ID)
	require.Len(t, secs[1].Products, 1)
	assert.Equal(t, "hw-1001", secs[1].Products[0].ID)
}

func TestViewCmd_Table(t *testing.T) {
	out, err := run(t, "view", "camo", "-s", "stock-asc")
	require.NoError(t, err)

	assert.Contains(t, out, "[camo-collection]")
	assert.Contains(t, out, "total=4")
	lines := strings.Split(out, "\n")
	var beanie string
	for _, l := range lines {
		if strings.HasPrefix(l, "hw-3001") {
			beanie = l
		}
	}
	require.NotEmpty(t, beanie)
	assert.Contains(t, beanie, " - ")
}

func TestViewCmd_Errors(t *testing.T) {
	_, err := run(t, "view", "winter")
	assert.ErrorContains(t, err, "unknown collection")

	_, err = run(t, "view", "camo", "-s", "cheapest")
	assert.ErrorContains(t, err, "unknown sort")
}

func TestTokenCmd_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	_, err := run(t, "token", "--user", "u-1")
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestTokenCmd_RejectsSwitchWithoutSuperAdmin(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")

	_, err := run(t, "token", "--user", "u-1", "--role", "admin", "--as", "vendor")
	assert.Error(t, err)

	out, err := run(t, "token", "--user", "u-1", "--role", "SUPER_ADMIN", "--as", "vendor")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out), "."))
}
