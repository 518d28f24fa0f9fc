package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"prizedraw/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLotteryFile = `
accounts:
  - account: alice
    token: CHIP
    amount: 1000
lotteries:
  - creator: house
    config:
      payment_token: CHIP
      ticket_price: 10
      max_tickets: 100
      min_tickets: 10
      start_time: 2026-03-01T12:00:00Z
      end_time: 2026-03-02T12:00:00Z
      draw_time: 2026-03-02T13:00:00Z
      prize_shares: [5000, 3000, 2000]
`

func TestParseLotteryFile(t *testing.T) {
	file, err := ParseLotteryFile([]byte(sampleLotteryFile))
	require.NoError(t, err)

	require.Len(t, file.Accounts, 1)
	assert.Equal(t, AccountGrant{Account: "alice", Token: "CHIP", Amount: 1000}, file.Accounts[0])

	require.Len(t, file.Lotteries, 1)
	cfg := file.Lotteries[0].Config
	assert.Equal(t, "house", file.Lotteries[0].Creator)
	assert.Equal(t, []int64{5000, 3000, 2000}, cfg.PrizeShares)
	assert.True(t, cfg.StartTime.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestParseLotteryFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "accounts: []\nprizes: []\n"},
		{"grant without token", "accounts:\n  - account: alice\n    amount: 5\n"},
		{"negative grant", "accounts:\n  - account: alice\n    token: CHIP\n    amount: -5\n"},
		{"lottery without creator", "lotteries:\n  - config:\n      payment_token: CHIP\n"},
		{"invalid config", "lotteries:\n  - creator: house\n    config:\n      payment_token: CHIP\n      ticket_price: 0\n"},
		{"not yaml", "accounts: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLotteryFile([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseLotteryFile_InvalidConfigWrapsSentinel(t *testing.T) {
	_, err := ParseLotteryFile([]byte("lotteries:\n  - creator: house\n    config:\n      payment_token: CHIP\n"))
	assert.ErrorIs(t, err, entities.ErrInvalidConfig)
}

func TestLoadLotteryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lotteries.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleLotteryFile), 0o600))

	file, err := LoadLotteryFile(path)
	require.NoError(t, err)
	assert.Len(t, file.Lotteries, 1)

	_, err = LoadLotteryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
