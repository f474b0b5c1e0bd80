package layout

// Class is the coarse routing class of a layout label.
type Class string

const (
	ClassText   Class = "TEXT"
	ClassMath   Class = "MATH"
	ClassVisual Class = "VISUAL"
	ClassTable  Class = "TABLE"
)

// Layout labels emitted by the detector that the pipeline treats specially.
const (
	LabelText           = "Text"
	LabelTitle          = "Title"
	LabelSectionHeader  = "SectionHeader"
	LabelList           = "List"
	LabelListItem       = "ListItem"
	LabelCaption        = "Caption"
	LabelFootnote       = "Footnote"
	LabelPageFooter     = "PageFooter"
	LabelPageHeader     = "PageHeader"
	LabelFormula        = "Formula"
	LabelEquation       = "Equation"
	LabelTextInlineMath = "Text-inline-math"
	LabelPicture        = "Picture"
	LabelFigure         = "Figure"
	LabelImage          = "Image"
	LabelGraphic        = "Graphic"
	LabelTable          = "Table"
)

var labelClasses = map[string]Class{
	LabelText:           ClassText,
	LabelTitle:          ClassText,
	LabelSectionHeader:  ClassText,
	LabelList:           ClassText,
	LabelListItem:       ClassText,
	LabelCaption:        ClassText,
	LabelFootnote:       ClassText,
	LabelPageFooter:     ClassText,
	LabelPageHeader:     ClassText,
	LabelFormula:        ClassMath,
	LabelEquation:       ClassMath,
	LabelTextInlineMath: ClassMath,
	LabelPicture:        ClassVisual,
	LabelFigure:         ClassVisual,
	LabelImage:          ClassVisual,
	LabelGraphic:        ClassVisual,
	LabelTable:          ClassTable,
}

// ClassOf maps a detector label to its coarse class. Unknown labels are TEXT.
func ClassOf(label string) Class {
	if c, ok := labelClasses[label]; ok {
		return c
	}
	return ClassText
}

// ContentType is the record-level name of a class.
func (c Class) ContentType() string {
	switch c {
	case ClassMath:
		return "equation"
	case ClassVisual:
		return "figure"
	case ClassTable:
		return "table"
	default:
		return "text"
	}
}
