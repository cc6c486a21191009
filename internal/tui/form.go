package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/daykey"
	"github.com/julianstephens/mydiary/internal/models"
)

func NewTodoForm(fm *TodoFormModel, loc *time.Location) *huh.Form {
	options := make([]huh.Option[models.Category], 0, len(models.AllCategories()))
	for _, c := range models.AllCategories() {
		options = append(options, huh.NewOption(c.Icon()+" "+c.Label(), c))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title must not be empty")
					}
					return nil
				}),
			huh.NewSelect[models.Category]().
				Title("Category").
				Options(options...).
				Value(&fm.Category),
			huh.NewInput().
				Title("Due").
				Description("Optional, YYYY-MM-DD or \"YYYY-MM-DD HH:MM\"").
				Value(&fm.Due).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := daykey.ParseDue(s, loc)
					return err
				}),
		),
	)
}

// newTodoFormModel fills the form from item, or with defaults for a new
// item when item is nil.
func newTodoFormModel(item *models.TodoItem, loc *time.Location) *TodoFormModel {
	if item == nil {
		return &TodoFormModel{Category: models.CategoryOther}
	}
	fm := &TodoFormModel{Title: item.Title, Category: item.Category}
	if item.DueDate != nil {
		fm.Due = item.DueDate.In(loc).Format(constants.DueFormat)
	}
	return fm
}

// dueDate parses the form's due field. Empty means no due date.
func (fm *TodoFormModel) dueDate(loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(fm.Due) == "" {
		return nil, nil
	}
	t, err := daykey.ParseDue(fm.Due, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
