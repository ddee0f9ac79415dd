package models

import "github.com/rtmanagement/backend/internal/domain/payment"

// FileRecordModel is the persistence model for a file attached to a document
type FileRecordModel struct {
	BaseModel
	FileName          string `gorm:"column:file_name;type:varchar(255);not null"`
	IsPrivate         bool   `gorm:"column:is_private;not null;default:true"`
	AttachedToDoctype string `gorm:"column:attached_to_doctype;type:varchar(40);not null;index:idx_file_records_owner"`
	AttachedToName    string `gorm:"column:attached_to_name;type:varchar(140);not null;index:idx_file_records_owner"`
	FileURL           string `gorm:"column:file_url;type:varchar(1000)"`
	StorageKey        string `gorm:"column:storage_key;type:varchar(500)"`
	Content           []byte `gorm:"column:content;type:bytea"`
	FileSize          int64  `gorm:"column:file_size;type:bigint;not null;default:0"`
	ContentType       string `gorm:"column:content_type;type:varchar(100)"`
	Owner             string `gorm:"column:owner;type:varchar(140);not null"`
}

// TableName returns the table name for GORM
func (FileRecordModel) TableName() string {
	return "file_records"
}

// ToDomain converts the persistence model to a domain FileRecord
func (m *FileRecordModel) ToDomain() *payment.FileRecord {
	return &payment.FileRecord{
		BaseEntity:        m.BaseModel.ToDomain(),
		FileName:          m.FileName,
		IsPrivate:         m.IsPrivate,
		AttachedToDoctype: m.AttachedToDoctype,
		AttachedToName:    m.AttachedToName,
		FileURL:           m.FileURL,
		StorageKey:        m.StorageKey,
		Content:           m.Content,
		FileSize:          m.FileSize,
		ContentType:       m.ContentType,
		Owner:             m.Owner,
	}
}

// FromDomain populates the persistence model from a domain FileRecord
func (m *FileRecordModel) FromDomain(f *payment.FileRecord) {
	m.FromDomainBaseEntity(f.BaseEntity)
	m.FileName = f.FileName
	m.IsPrivate = f.IsPrivate
	m.AttachedToDoctype = f.AttachedToDoctype
	m.AttachedToName = f.AttachedToName
	m.FileURL = f.FileURL
	m.StorageKey = f.StorageKey
	m.Content = f.Content
	m.FileSize = f.FileSize
	m.ContentType = f.ContentType
	m.Owner = f.Owner
}

// FileRecordModelFromDomain creates a new persistence model from a domain FileRecord
func FileRecordModelFromDomain(f *payment.FileRecord) *FileRecordModel {
	m := &FileRecordModel{}
	m.FromDomain(f)
	return m
}
