package jobs

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
)

// SeedFile is the YAML layout of TEMPLATE_SEED_FILE.
type SeedFile struct {
	Templates []model.AdminTemplate `yaml:"templates"`
}

// SeedStore is what SeedAdminTemplates needs from the admin templates
// repository.
type SeedStore interface {
	Count(ctx context.Context) (int64, error)
	InsertMany(ctx context.Context, ts []model.AdminTemplate) (int, error)
}

// LoadSeed reads and checks a seed file.  Every template needs a title, a
// target role and at least one question.
func LoadSeed(path string) ([]model.AdminTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, t := range f.Templates {
		switch {
		case t.Title == "":
			return nil, fmt.Errorf("seed template %d: missing title", i)
		case t.TargetRole == "":
			return nil, fmt.Errorf("seed template %q: missing targetRole", t.Title)
		case len(t.Questions) == 0:
			return nil, fmt.Errorf("seed template %q: no questions", t.Title)
		}
		model.NormalizeQuestions(f.Templates[i].Questions)
	}
	return f.Templates, nil
}

// SeedAdminTemplates inserts the templates from path when the collection is
// empty.  An empty path does nothing.
func SeedAdminTemplates(ctx context.Context, store SeedStore, path string, log *zap.Logger) (int, error) {
	if path == "" {
		return 0, nil
	}
	n, err := store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Debug("admin templates present, skipping seed", zap.Int64("count", n))
		return 0, nil
	}
	ts, err := LoadSeed(path)
	if err != nil {
		return 0, err
	}
	inserted, err := store.InsertMany(ctx, ts)
	if err != nil {
		return 0, err
	}
	log.Info("seeded admin templates", zap.Int("count", inserted), zap.String("file", path))
	return inserted, nil
}
