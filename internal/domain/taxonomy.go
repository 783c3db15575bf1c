package domain

import "time"

// Term is a taxonomy term (category, tag, ...)
type Term struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Taxonomy  string    `gorm:"column:taxonomy;type:varchar(50);index" json:"taxonomy"`
	Name      string    `gorm:"column:name;type:varchar(100)" json:"name"`
	Slug      string    `gorm:"column:slug;type:varchar(100);uniqueIndex" json:"slug"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Term) TableName() string { return "terms" }

// PostTerm assigns a term to a post
type PostTerm struct {
	PostID uint64 `gorm:"column:post_id;primaryKey" json:"post_id"`
	TermID uint64 `gorm:"column:term_id;primaryKey" json:"term_id"`
}

func (PostTerm) TableName() string { return "post_terms" }
