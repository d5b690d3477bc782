package dto

import "time"

// CreateFAQRequest payload. Contenido is markdown.
type CreateFAQRequest struct {
	Titulo    string `json:"titulo" validate:"required,max=200"`
	Contenido string `json:"contenido" validate:"required"`
	Categoria string `json:"categoria" validate:"max=100"`
}

// FAQResponse is the API view of a knowledge-base entry.
type FAQResponse struct {
	ID            int64     `json:"id"`
	Titulo        string    `json:"titulo"`
	Contenido     string    `json:"contenido"`
	ContenidoHTML string    `json:"contenido_html"`
	Categoria     string    `json:"categoria"`
	AutorID       int64     `json:"autor_id"`
	Autor         string    `json:"autor"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
