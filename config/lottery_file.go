package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"prizedraw/domain/entities"

	"gopkg.in/yaml.v3"
)

// LotteryFile describes accounts to fund and lotteries to create at startup
type LotteryFile struct {
	Accounts  []AccountGrant `yaml:"accounts"`
	Lotteries []LotterySeed  `yaml:"lotteries"`
}

// AccountGrant credits an account on the payment rail
type AccountGrant struct {
	Account string `yaml:"account"`
	Token   string `yaml:"token"`
	Amount  int64  `yaml:"amount"`
}

// LotterySeed is one lottery to create
type LotterySeed struct {
	Creator string                 `yaml:"creator"`
	Config  entities.LotteryConfig `yaml:"config"`
}

// LoadLotteryFile reads and validates a YAML lottery file
func LoadLotteryFile(path string) (*LotteryFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lottery file: %w", err)
	}
	return ParseLotteryFile(raw)
}

// ParseLotteryFile decodes a YAML lottery file. Unknown keys are rejected.
func ParseLotteryFile(raw []byte) (*LotteryFile, error) {
	var file LotteryFile
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse lottery file: %w", err)
	}

	for i, grant := range file.Accounts {
		if grant.Account == "" || grant.Token == "" {
			return nil, fmt.Errorf("account grant %d needs an account and a token", i)
		}
		if grant.Amount <= 0 {
			return nil, fmt.Errorf("account grant %d must have a positive amount, got %d", i, grant.Amount)
		}
	}
	for i, seed := range file.Lotteries {
		if seed.Creator == "" {
			return nil, fmt.Errorf("lottery %d needs a creator", i)
		}
		if err := seed.Config.Validate(); err != nil {
			return nil, fmt.Errorf("lottery %d: %w", i, err)
		}
	}
	return &file, nil
}
