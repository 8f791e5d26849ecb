package domain

import "time"

// ProjectType はプロジェクトの種類です。
type ProjectType string

const (
	ProjectPhoto     ProjectType = "Photo"
	ProjectThumbnail ProjectType = "Thumbnail"
	ProjectVideo     ProjectType = "Video"
)

// Project はローカルに保存する作品のメタデータです。
type Project struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Thumbnail string      `json:"thumbnail"` // PNG データURI
	Type      ProjectType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Duration  string      `json:"duration,omitempty"` // Video のみ
}
