package achievements

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dileepadari/wellnesshub/internal/models"
)

// catalogFile is the YAML shape of the achievement catalog.
type catalogFile struct {
	Achievements []catalogEntry `yaml:"achievements"`
}

type catalogEntry struct {
	Name          string          `yaml:"name"`
	Description   string          `yaml:"description"`
	Icon          string          `yaml:"icon"`
	Category      string          `yaml:"category"`
	Points        int             `yaml:"points"`
	Criteria      catalogCriteria `yaml:"criteria"`
	Prerequisites []string        `yaml:"prerequisites"`
	AvailableFrom *time.Time      `yaml:"available_from"`
	AvailableTo   *time.Time      `yaml:"available_to"`
}

type catalogCriteria struct {
	Target    string      `yaml:"target"`
	Operator  string      `yaml:"operator"`
	Value     interface{} `yaml:"value"`
	Timeframe string      `yaml:"timeframe"`
}

// SeedFromCatalog loads the achievement catalog from a YAML file and creates
// any achievement not present yet (matched by name). Existing achievements
// are left untouched so manual edits survive restarts. Returns the number of
// achievements created.
func (s *Service) SeedFromCatalog(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read achievement catalog: %w", err)
	}

	var catalog catalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return 0, fmt.Errorf("failed to parse achievement catalog: %w", err)
	}

	created := 0
	for _, entry := range catalog.Achievements {
		existing, err := s.achievementRepo.GetByName(entry.Name)
		if err == nil && existing != nil {
			continue
		}

		criteria, err := json.Marshal(models.AchievementCriteria{
			Target:    entry.Criteria.Target,
			Operator:  entry.Criteria.Operator,
			Value:     entry.Criteria.Value,
			Timeframe: entry.Criteria.Timeframe,
		})
		if err != nil {
			return created, fmt.Errorf("failed to encode criteria for %s: %w", entry.Name, err)
		}

		achievement := &models.Achievement{
			Name:          entry.Name,
			Description:   entry.Description,
			Icon:          entry.Icon,
			Category:      entry.Category,
			Points:        entry.Points,
			Criteria:      criteria,
			Active:        true,
			AvailableFrom: entry.AvailableFrom,
			AvailableTo:   entry.AvailableTo,
		}

		// Prerequisites are resolved by name against already-seeded entries,
		// so catalog order matters for chains.
		for _, prereqName := range entry.Prerequisites {
			prereq, err := s.achievementRepo.GetByName(prereqName)
			if err != nil || prereq == nil {
				s.log.Warn().
					Str("achievement", entry.Name).
					Str("prerequisite", prereqName).
					Msg("Skipping unknown prerequisite in catalog")
				continue
			}
			achievement.Prerequisites = append(achievement.Prerequisites, models.AchievementPrerequisite{
				RequiredID: prereq.ID,
				Required:   true,
			})
		}

		if err := s.achievementRepo.Create(achievement); err != nil {
			return created, fmt.Errorf("failed to create achievement %s: %w", entry.Name, err)
		}
		created++
	}

	if created > 0 {
		s.log.Info().Int("created", created).Str("catalog", path).Msg("Seeded achievement catalog")
	}

	return created, nil
}
