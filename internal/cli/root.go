// Package cli офлайн-утилита sprintctl поверх CSV каталога с данными.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/T1mof/sprint-planner/internal/holiday"
	"github.com/T1mof/sprint-planner/internal/repository"
	"github.com/T1mof/sprint-planner/internal/service"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// App зависимости команд. Service создается из --data-dir, если не задан заранее.
type App struct {
	Service service.ServiceInterface

	dataDir string
	output  string
}

// NewRootCmd создает команду sprintctl со всеми подкомандами.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "sprintctl",
		Short:         "Plan sprints from the team roster and sprint history",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.output != outputJSON && app.output != outputYAML {
				return fmt.Errorf("unsupported output format %q (use json or yaml)", app.output)
			}
			if app.Service != nil {
				return nil
			}

			store, err := repository.NewCSVStore(app.dataDir)
			if err != nil {
				return err
			}
			app.Service = service.NewPlannerService(store, holiday.Default())
			return nil
		},
	}

	root.PersistentFlags().StringVar(&app.dataDir, "data-dir", "data", "Directory with team-members.csv, sprint-history.csv and settings.csv")
	root.PersistentFlags().StringVarP(&app.output, "output", "o", outputJSON, "Output format: json or yaml")

	root.AddCommand(
		newPlanCmd(app),
		newCapacityCmd(app),
		newRecommendCmd(app),
		newHolidaysCmd(app),
	)

	return root
}

// render печатает значение в выбранном формате. YAML строится из JSON представления,
// чтобы ключи совпадали с HTTP API.
func (app *App) render(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	if app.output == outputYAML {
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		data, err = yaml.Marshal(generic)
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		_, err = w.Write(data)
		return err
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
