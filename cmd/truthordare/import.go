package main

import (
	"fmt"
	"os"

	"truthordare/internal/question"
	"truthordare/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type questionFile struct {
	Questions []struct {
		Type   string `yaml:"type"`
		Rating string `yaml:"rating"`
		Text   string `yaml:"text"`
	} `yaml:"questions"`
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Add the global questions listed in a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		drafts, err := readQuestionFile(args[0])
		if err != nil {
			return err
		}

		db, err := storage.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		store := storage.New(db)
		defer store.Close()
		if err := storage.Migrate(db); err != nil {
			return err
		}

		questions := question.NewStore(store, question.NewIndex(), logger)
		n, err := questions.Import(cmd.Context(), drafts)
		logger.Info("questions imported", zap.Int("count", n), zap.Int("total", len(drafts)))
		return err
	},
}

func readQuestionFile(path string) ([]question.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var file questionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	drafts := make([]question.Draft, 0, len(file.Questions))
	for i, entry := range file.Questions {
		typ, err := question.ParseType(entry.Type)
		if err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", path, i+1, err)
		}
		rating, err := question.ParseRating(entry.Rating)
		if err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", path, i+1, err)
		}
		drafts = append(drafts, question.Draft{Type: typ, Rating: rating, Text: entry.Text})
	}
	return drafts, nil
}
