package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/spacetraders-go/internal/adapters/persistence"
	"github.com/andrescamacho/spacetraders-go/internal/domain/player"
	"github.com/andrescamacho/spacetraders-go/internal/infrastructure/database"
)

func TestPlayerRepository_AddAndFind(t *testing.T) {
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewGormPlayerRepository(db)

	p := player.NewPlayer(1, "TEST-AGENT", "test-token-123")
	p.StartingFaction = "COSMIC"

	require.NoError(t, repo.Add(context.Background(), p))

	found, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)
	assert.Equal(t, p.AgentSymbol, found.AgentSymbol)
	assert.Equal(t, p.Token, found.Token)
	assert.Equal(t, p.StartingFaction, found.StartingFaction)
}

func TestPlayerRepository_FindByAgentSymbol(t *testing.T) {
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewGormPlayerRepository(db)

	p := player.NewPlayer(2, "AGENT-2", "token-456")
	require.NoError(t, repo.Add(context.Background(), p))

	found, err := repo.FindByAgentSymbol(context.Background(), "AGENT-2")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)
	assert.Equal(t, p.AgentSymbol, found.AgentSymbol)
}

func TestPlayerRepository_NotFound(t *testing.T) {
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewGormPlayerRepository(db)

	_, err = repo.FindByID(context.Background(), 999)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "player not found")
}
