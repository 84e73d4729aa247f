package usecase

import "fmt"

// Step names one runnable pipeline step.
type Step string

const (
	StepScrape    Step = "scrape"
	StepGroup     Step = "group"
	StepMerge     Step = "merge"
	StepConvert   Step = "convert"
	StepTranslate Step = "translate"
	StepImages    Step = "images"
	StepReview    Step = "review"
	StepCopy      Step = "copy"
	StepDeploy    Step = "deploy"
	StepClean     Step = "clean"
	StepCleanup   Step = "cleanup"
)

// ParseStep validates a step name from the CLI.
func ParseStep(name string) (Step, error) {
	switch Step(name) {
	case StepScrape, StepGroup, StepMerge, StepConvert, StepTranslate,
		StepImages, StepReview, StepCopy, StepDeploy, StepClean, StepCleanup:
		return Step(name), nil
	}
	return "", fmt.Errorf("unknown step %q", name)
}
