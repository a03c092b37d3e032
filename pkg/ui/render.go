package ui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pseudomuto/adpt/pkg/platform"
	"github.com/pseudomuto/adpt/pkg/recipe"
)

const descriptionWidth = 60

// Recipes renders custom recipes.
func Recipes(w io.Writer, recipes []platform.Recipe) error {
	if len(recipes) == 0 {
		_, err := fmt.Fprintln(w, "No recipes found.")
		return err
	}

	t := NewTable(w, "NAME", "KEY", "DESCRIPTION", "CREATED")
	for _, r := range recipes {
		t.Row(r.Name, deref(r.Key), truncate(deref(r.Description), descriptionWidth), formatTime(r.CreatedAt.Time))
	}

	return t.Flush()
}

// Jobs renders a job list.
func Jobs(w io.Writer, jobs []platform.Job) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, "No running or pending jobs.")
		return err
	}

	t := NewTable(w, "ID", "NAME", "RECIPE", "STATUS", "CREATED")
	for _, j := range jobs {
		var recipeName string
		if j.Recipe != nil {
			recipeName = j.Recipe.Name
		}

		t.Row(j.ID.String(), j.Name, recipeName, JobStatus(j.Status), formatTime(j.CreatedAt.Time))
	}

	return t.Flush()
}

// Job renders a single job with its stages.
func Job(w io.Writer, job *platform.Job) error {
	if _, err := fmt.Fprintf(w, "Job:     %s (%s)\nStatus:  %s\n", job.Name, job.ID, JobStatus(job.Status)); err != nil {
		return err
	}

	if job.Error != nil && *job.Error != "" {
		if _, err := fmt.Fprintf(w, "Error:   %s\n", *job.Error); err != nil {
			return err
		}
	}

	if len(job.Stages) == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	t := NewTable(w, "STAGE", "STATUS", "PROGRESS")
	for _, s := range job.Stages {
		t.Row(s.Name, StageStatus(s.Status), stageProgress(s))
	}

	return t.Flush()
}

// ModelServices renders the models deployed in a use case.
func ModelServices(w io.Writer, models []platform.ModelService) error {
	if len(models) == 0 {
		_, err := fmt.Fprintln(w, "No models found.")
		return err
	}

	t := NewTable(w, "NAME", "KEY", "STATUS", "DEFAULT")
	for _, m := range models {
		def := ""
		if m.IsDefault {
			def = "yes"
		}
		t.Row(m.Name, m.Key, m.Status, def)
	}

	return t.Flush()
}

// Models renders registry models.
func Models(w io.Writer, models []platform.Model) error {
	if len(models) == 0 {
		_, err := fmt.Fprintln(w, "No models found.")
		return err
	}

	t := NewTable(w, "NAME", "KEY", "ONLINE", "EXTERNAL")
	for _, m := range models {
		t.Row(m.Name, m.Key, m.Online, strconv.FormatBool(m.IsExternal))
	}

	return t.Flush()
}

// Parameters renders recipe parameters.
func Parameters(w io.Writer, params []recipe.Parameter) error {
	if len(params) == 0 {
		_, err := fmt.Fprintln(w, "This recipe takes no parameters.")
		return err
	}

	t := NewTable(w, "PARAMETER", "TYPE", "REQUIRED", "DEFAULT", "DESCRIPTION")
	for _, p := range params {
		def := ""
		if p.Default != nil {
			def = fmt.Sprint(p.Default)
		}
		t.Row("--"+p.Name, p.Type, strconv.FormatBool(p.Required), def, truncate(p.Description, descriptionWidth))
	}

	return t.Flush()
}

// JobStatus returns a status label with an icon.
func JobStatus(s platform.JobStatus) string {
	switch s {
	case platform.JobPending:
		return "○ Pending"
	case platform.JobRunning:
		return "● Running"
	case platform.JobCompleted:
		return "✓ Completed"
	case platform.JobFailed:
		return "✗ Failed"
	case platform.JobCanceled:
		return "⊘ Canceled"
	default:
		return "? Unknown"
	}
}

// StageStatus returns a status label with an icon.
func StageStatus(s platform.StageStatus) string {
	switch s {
	case platform.StagePending:
		return "○ Pending"
	case platform.StageRunning:
		return "● Running"
	case platform.StageDone:
		return "✓ Done"
	case platform.StageCancelled:
		return "⊘ Cancelled"
	case platform.StageError:
		return "✗ Error"
	default:
		return "? Unknown"
	}
}

func stageProgress(s platform.Stage) string {
	processed, total, ok := s.Progress()
	if !ok {
		return ""
	}

	if total <= 0 {
		return fmt.Sprintf("%d samples", processed)
	}

	return fmt.Sprintf("%d/%d (%.0f%%)", processed, total, float64(processed)/float64(total)*100)
}
