package model

import "mime/multipart"

type BourseUpload struct {
	Fields          BourseFields
	Image           *multipart.FileHeader
	Video           *multipart.FileHeader
	ProcedureMedias []*multipart.FileHeader
}
