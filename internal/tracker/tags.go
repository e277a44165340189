package tracker

import (
	"fmt"
	"slices"
	"strings"
)

// NormalizeTags trims every tag and drops empty and repeated entries,
// keeping first-seen order. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = AddTag(out, t)
	}
	return out
}

// AddTag returns tags with tag appended. Blank and duplicate tags are a no-op.
func AddTag(tags []string, tag string) []string {
	tag = strings.TrimSpace(tag)
	if tag == "" || slices.Contains(tags, tag) {
		return slices.Clone(tags)
	}
	return append(slices.Clone(tags), tag)
}

// RemoveTag returns tags without tag.
func RemoveTag(tags []string, tag string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

// AddStage appends stage. Stage name and date are required.
func AddStage(stages []InterviewStage, stage InterviewStage) ([]InterviewStage, error) {
	stage.Stage = strings.TrimSpace(stage.Stage)
	if stage.Stage == "" || stage.Date == "" {
		return nil, fmt.Errorf("interview stage needs a stage and a date")
	}
	return append(slices.Clone(stages), stage), nil
}

// RemoveStage returns stages without the entry at index.
func RemoveStage(stages []InterviewStage, index int) ([]InterviewStage, error) {
	if index < 0 || index >= len(stages) {
		return nil, fmt.Errorf("interview stage %d out of range (have %d)", index, len(stages))
	}
	out := make([]InterviewStage, 0, len(stages)-1)
	out = append(out, stages[:index]...)
	return append(out, stages[index+1:]...), nil
}
