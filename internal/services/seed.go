package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ZerkerEOD/slotban/pkg/debug"
	"gopkg.in/yaml.v3"
)

// SeedBan is one entry of a development seed file.
type SeedBan struct {
	SlotName string `yaml:"slotName"`
	BannedBy string `yaml:"bannedBy"`
}

// SeedFile is the YAML document read by LoadSeedFile:
//
//	bans:
//	  - slotName: Book of Dead
//	    bannedBy: TestUser
type SeedFile struct {
	Bans []SeedBan `yaml:"bans"`
}

// DefaultSeedBans is used in development when no seed file is configured.
var DefaultSeedBans = []SeedBan{
	{SlotName: "Book of Dead", BannedBy: "TestUser"},
}

// LoadSeedFile reads development seed bans from a YAML file.
func LoadSeedFile(path string) ([]SeedBan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal seed YAML: %w", err)
	}

	for i, ban := range file.Bans {
		if strings.TrimSpace(ban.SlotName) == "" || strings.TrimSpace(ban.BannedBy) == "" {
			return nil, fmt.Errorf("seed entry %d: slotName and bannedBy are required", i)
		}
	}
	return file.Bans, nil
}

// SeedBans adds the given bans through the ban service, skipping slots that
// are already banned. It returns how many bans were created.
func SeedBans(ctx context.Context, bans *BanService, seeds []SeedBan) (int, error) {
	created := 0
	for _, seed := range seeds {
		_, err := bans.AddManualBan(ctx, strings.TrimSpace(seed.SlotName), strings.TrimSpace(seed.BannedBy))
		if errors.Is(err, ErrAlreadyBanned) {
			debug.Debug("Seed slot %q already banned, skipping", seed.SlotName)
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed %q: %w", seed.SlotName, err)
		}
		created++
	}

	debug.Info("Seeded %d development bans", created)
	return created, nil
}
