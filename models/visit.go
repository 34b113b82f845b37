package models

import "time"

// PageVisit repräsentiert einen deduplizierten Seitenbesuch pro Tag.
type PageVisit struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Path        string    `json:"path" gorm:"index;uniqueIndex:idx_visit_identity;size:120"`
	VisitDate   string    `json:"visit_date" gorm:"uniqueIndex:idx_visit_identity;size:10"`
	VisitorHash string    `json:"visitor_hash" gorm:"uniqueIndex:idx_visit_identity;size:64"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
