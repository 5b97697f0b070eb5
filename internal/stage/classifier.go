// Package stage decides which accounting regime a workbook row belongs to.
package stage

import (
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/config"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/normalize"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
)

// Classification is the value set selected for one row.
type Classification struct {
	BeforeCutover bool
	Label         string
	Quantity      float64
	Cost          float64
	Total         float64
}

// Classifier selects between the legacy balance columns and the current
// intake columns of a row.
type Classifier struct {
	labels config.StageLabels
	parser *normalize.NumberParser
}

// NewClassifier builds a classifier. The parser is shared with the caller so
// its fallback statistics cover every number the stage read.
func NewClassifier(labels config.StageLabels, parser *normalize.NumberParser) *Classifier {
	if parser == nil {
		parser = normalize.NewNumberParser()
	}
	return &Classifier{labels: labels, parser: parser}
}

// Classify picks the legacy columns when the legacy balance total is strictly
// positive, and the current intake columns otherwise.
func (c *Classifier) Classify(row types.SourceRow) Classification {
	legacyTotal := c.parser.Parse(row.Legacy.Total)

	if legacyTotal > 0 {
		return Classification{
			BeforeCutover: true,
			Label:         c.labels.BeforeCutover,
			Quantity:      c.parser.Parse(row.Legacy.Quantity),
			Cost:          c.parser.Parse(row.Legacy.Cost),
			Total:         legacyTotal,
		}
	}

	return Classification{
		BeforeCutover: false,
		Label:         c.labels.AfterCutover,
		Quantity:      c.parser.Parse(row.Current.Quantity),
		Cost:          c.parser.Parse(row.Current.Cost),
		Total:         c.parser.Parse(row.Current.Total),
	}
}

// Stats exposes the parser counters.
func (c *Classifier) Stats() normalize.NumberStats {
	return c.parser.Stats()
}
