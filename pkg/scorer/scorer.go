package scorer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/flight-search/contentguard/pkg/blocklist"
	"github.com/flight-search/contentguard/pkg/classifier"
	"github.com/flight-search/contentguard/pkg/infra/prometheus"
	"github.com/flight-search/contentguard/pkg/lexical"
	"github.com/flight-search/contentguard/pkg/policy"
	"github.com/flight-search/contentguard/pkg/types"
)

const (
	defaultMinConfidence        = 0.4
	defaultEducationalReduction = 30
)

// Config tunes score combination.
type Config struct {
	// MinClassifierConfidence gates classifier contributions so trace
	// noise from the moderation API does not trigger categories.
	MinClassifierConfidence float64 `mapstructure:"min_classifier_confidence"`
	// EducationalReduction is subtracted from reducible categories when a
	// query has an academic framing.
	EducationalReduction int `mapstructure:"educational_reduction"`
	MaxEditDistance      int `mapstructure:"max_edit_distance"`
}

// Scorer combines lexical match signals with the external classifier into
// a 0-100 risk assessment. A single worst-case signal wins; signals are
// never averaged, so one severe match cannot be diluted.
type Scorer struct {
	matcher    *lexical.Matcher
	classifier classifier.Classifier
	table      *policy.Table
	cfg        Config
	logger     *logrus.Logger
}

func New(cl classifier.Classifier, table *policy.Table, cfg Config, logger *logrus.Logger) *Scorer {
	if cl == nil {
		cl = classifier.Noop{}
	}
	if cfg.MinClassifierConfidence <= 0 {
		cfg.MinClassifierConfidence = defaultMinConfidence
	}
	if cfg.EducationalReduction <= 0 {
		cfg.EducationalReduction = defaultEducationalReduction
	}
	return &Scorer{
		matcher:    lexical.NewMatcher(cfg.MaxEditDistance),
		classifier: cl,
		table:      table,
		cfg:        cfg,
		logger:     logger,
	}
}

// ScoreQuery assesses the query text itself. Queries with an academic
// framing get the educational reduction on reducible categories.
func (s *Scorer) ScoreQuery(ctx context.Context, text, language string, snapshot *blocklist.Snapshot) types.RiskAssessment {
	return s.score(ctx, text, language, snapshot, hasEducationalContext(text))
}

// ScoreResult assesses one result item's text, unreduced.
func (s *Scorer) ScoreResult(ctx context.Context, text, language string, snapshot *blocklist.Snapshot) types.RiskAssessment {
	return s.score(ctx, text, language, snapshot, false)
}

func (s *Scorer) score(ctx context.Context, text, language string, snapshot *blocklist.Snapshot, educational bool) types.RiskAssessment {
	assessment := types.RiskAssessment{
		CategoryScores:  map[string]int{},
		Source:          types.SourceLexical,
		SnapshotVersion: snapshot.Version,
	}

	// Base score per category: max severity among lexical matches.
	matches := s.matcher.Match(text, language, snapshot.Rules)
	for _, m := range matches {
		if m.Severity > assessment.CategoryScores[m.Category] {
			assessment.CategoryScores[m.Category] = m.Severity
		}
	}

	// Classifier contribution: confidence x category weight, combined per
	// category by max. Unavailability degrades to lexical-only; the
	// content stays subject to lexical filtering either way.
	scores, err := s.classifier.Classify(ctx, text)
	if err != nil {
		prometheus.ClassifierFailures.Inc()
		s.logger.WithError(err).Debug("classifier unavailable, scoring lexical-only")
	} else {
		contributed := false
		for _, cs := range scores {
			if cs.Confidence < s.cfg.MinClassifierConfidence {
				continue
			}
			weight := 100
			if pol, ok := s.table.Policy(cs.Category); ok {
				weight = pol.Weight
			}
			contribution := int(cs.Confidence * float64(weight))
			if contribution > assessment.CategoryScores[cs.Category] {
				assessment.CategoryScores[cs.Category] = contribution
			}
			if contribution > 0 {
				contributed = true
			}
		}
		if contributed {
			if len(matches) > 0 {
				assessment.Source = types.SourceCombined
			} else {
				assessment.Source = types.SourceClassifier
			}
		}
	}

	if educational {
		s.applyEducationalReduction(assessment.CategoryScores)
	}

	for category, score := range assessment.CategoryScores {
		if score <= 0 {
			delete(assessment.CategoryScores, category)
			continue
		}
		if score > 100 {
			score = 100
			assessment.CategoryScores[category] = score
		}
		if score > assessment.Score {
			assessment.Score = score
		}
	}
	return assessment
}

func (s *Scorer) applyEducationalReduction(categoryScores map[string]int) {
	for category, score := range categoryScores {
		pol, ok := s.table.Policy(category)
		if !ok || !pol.Reducible {
			continue
		}
		reduced := score - s.cfg.EducationalReduction
		if reduced < 0 {
			reduced = 0
		}
		categoryScores[category] = reduced
	}
}
