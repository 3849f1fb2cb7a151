package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []SeedBan
		wantErr bool
	}{
		{
			name: "valid file",
			content: `bans:
  - slotName: Book of Dead
    bannedBy: TestUser
  - slotName: Sweet Bonanza
    bannedBy: Alice
`,
			want: []SeedBan{
				{SlotName: "Book of Dead", BannedBy: "TestUser"},
				{SlotName: "Sweet Bonanza", BannedBy: "Alice"},
			},
		},
		{
			name:    "empty list",
			content: "bans: []\n",
		},
		{
			name:    "missing bannedBy",
			content: "bans:\n  - slotName: Book of Dead\n",
			wantErr: true,
		},
		{
			name:    "bare list without bans key",
			content: "- slotName: Book of Dead\n  bannedBy: TestUser\n",
			wantErr: true,
		},
		{
			name:    "not yaml",
			content: "bans: [unterminated",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadSeedFile(writeSeedFile(t, tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSeedBans_SkipsDuplicates(t *testing.T) {
	svc, _, _ := newTestBanService(t)
	ctx := context.Background()

	_, err := svc.AddManualBan(ctx, "book of dead", "Earlier")
	require.NoError(t, err)

	created, err := SeedBans(ctx, svc, []SeedBan{
		{SlotName: "Book of Dead", BannedBy: "TestUser"},
		{SlotName: " Sweet Bonanza ", BannedBy: "TestUser"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	all, err := svc.GetAllBannedSlots(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Sweet Bonanza", all[1].SlotName)
}

func TestSeedBans_Defaults(t *testing.T) {
	svc, _, _ := newTestBanService(t)

	created, err := SeedBans(context.Background(), svc, DefaultSeedBans)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}
