package scrape

import (
	"context"
	"fmt"
	"io"

	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/store"
)

// DevolvedParliaments are the legislatures whose registers carry no category
// information, so their groups are classified after scraping
var DevolvedParliaments = []model.Parliament{
	model.ParliamentScotland,
	model.ParliamentSeneddEN,
	model.ParliamentSeneddCY,
	model.ParliamentNI,
}

// AssignCategories runs the classifier over stored groups. With onlyMissing
// set, groups that already have categories keep them. A non-empty slug
// restricts the run to one group per parliament.
func AssignCategories(ctx context.Context, st *store.GroupStore, classifier Classifier, parliaments []model.Parliament, onlyMissing bool, slug string, out io.Writer) error {
	if len(parliaments) == 0 {
		parliaments = DevolvedParliaments
	}

	for _, parliament := range parliaments {
		groups, err := st.LoadAll(parliament)
		if err != nil {
			return fmt.Errorf("load %s groups: %w", parliament, err)
		}

		assigned := 0
		for _, group := range groups {
			if slug != "" && group.Slug != slug {
				continue
			}
			if onlyMissing && len(group.Categories) > 0 {
				continue
			}
			categories, err := classifier.Classify(ctx, group)
			if err != nil {
				fmt.Fprintf(out, "Could not classify %s: %v\n", group.Slug, err)
				continue
			}
			group.Categories = categories
			if err := st.Save(group); err != nil {
				return fmt.Errorf("save %s: %w", group.Slug, err)
			}
			fmt.Fprintf(out, "Assigned %d categories to %s\n", len(categories), group.Slug)
			assigned++
		}
		fmt.Fprintf(out, "Classified %d %s groups\n", assigned, parliament)
	}
	return nil
}
