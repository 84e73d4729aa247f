package domain

// Stage names one pipeline step's output directory. The numeric prefix fixes
// the on-disk ordering; stage N reads only from stage N-1 and writes only to
// its own directory, which is what makes interrupted runs resumable.
type Stage string

const (
	StageRawHTML    Stage = "1.raw_html"
	StageGroups     Stage = "2.groups"
	StageMerged     Stage = "3.merged"
	StageMarkdown   Stage = "4.markdown"
	StageTranslated Stage = "5.translated"
	StageImages     Stage = "6.images"
)

// Stages lists every stage in pipeline order.
func Stages() []Stage {
	return []Stage{
		StageRawHTML,
		StageGroups,
		StageMerged,
		StageMarkdown,
		StageTranslated,
		StageImages,
	}
}
