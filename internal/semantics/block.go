package semantics

import (
	"fmt"
	"strconv"

	"github.com/Malay-RB/Document-parsing/internal/layout"
)

// TOCLink attaches a block to the table-of-contents hierarchy.
// Nil fields serialize as null.
type TOCLink struct {
	UnitID      *int    `json:"unit_id"`
	UnitName    *string `json:"unit_name"`
	ChapterID   *int    `json:"chapter_id"`
	ChapterName *string `json:"chapter_name"`
}

// Block is one extracted content region of a page.
type Block struct {
	PDFPage      int          `json:"pdf_page"`
	PrintedPage  *int         `json:"printed_page"`
	ContentLabel string       `json:"content_label"`
	Class        layout.Class `json:"class"`
	Text         string       `json:"text"`
	BBox         layout.Rect  `json:"bbox"`
	Role         Role         `json:"semantic_role"`
	Link         TOCLink      `json:"toc_link"`
	Caption      string       `json:"caption,omitempty"`
	Context      Context      `json:"context"`
}

// BindFigures attaches the text of a FIGURE_CAPTION block to the VISUAL block
// immediately before it. The caption block is consumed and not returned.
func BindFigures(blocks []Block) []Block {
	out := make([]Block, 0, len(blocks))
	for i := 0; i < len(blocks); i++ {
		cur := blocks[i]
		if cur.Class == layout.ClassVisual && i+1 < len(blocks) && blocks[i+1].Role == RoleFigureCaption {
			cur.Caption = blocks[i+1].Text
			i++
		}
		out = append(out, cur)
	}
	return out
}

// Record is the serialized form of a block in the final output.
type Record struct {
	ID           string  `json:"id"`
	SequenceID   int     `json:"sequence_id"`
	UnitID       *int    `json:"unit_id"`
	UnitName     *string `json:"unit_name"`
	ChapterID    *int    `json:"chapter_id"`
	ChapterName  *string `json:"chapter_name"`
	PageNumber   *int    `json:"page_number"`
	PDFPage      int     `json:"pdf_page"`
	BlockIndex   int     `json:"block_index"`
	ContentType  string  `json:"content_type"`
	SemanticRole Role    `json:"semantic_role"`
	Text         string  `json:"text"`
	Caption      string  `json:"caption,omitempty"`
}

// ToRecord converts a block to its output record. index counts from 1 in
// extraction order and doubles as the sequence id.
func ToRecord(b Block, index int) Record {
	return Record{
		ID: fmt.Sprintf("u%s_c%s_p%s_b%d",
			optInt(b.Link.UnitID), optInt(b.Link.ChapterID), optInt(b.PrintedPage), index),
		SequenceID:   index,
		UnitID:       b.Link.UnitID,
		UnitName:     b.Link.UnitName,
		ChapterID:    b.Link.ChapterID,
		ChapterName:  b.Link.ChapterName,
		PageNumber:   b.PrintedPage,
		PDFPage:      b.PDFPage,
		BlockIndex:   index,
		ContentType:  b.Class.ContentType(),
		SemanticRole: b.Role,
		Text:         b.Text,
		Caption:      b.Caption,
	}
}

func optInt(v *int) string {
	if v == nil {
		return "None"
	}
	return strconv.Itoa(*v)
}
