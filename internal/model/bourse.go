package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type Bourse struct {
	ID                   BourseID `json:"id"`
	Titre                string   `json:"titre"`
	Description          string   `json:"description"`
	Pays                 string   `json:"pays"`
	Universite           string   `json:"universite"`
	NiveauEtude          string   `json:"niveau_etude"`
	DomaineEtude         string   `json:"domaine_etude"`
	MontantBourse        string   `json:"montant_bourse"`
	DateLimite           string   `json:"date_limite"`
	Conditions           string   `json:"conditions"`
	ProcedurePostulation string   `json:"procedure_postulation"`
	ImageURL             string   `json:"image_url"`
	VideoURL             string   `json:"video_url"`
	ProcedureMedias      []string `json:"procedure_medias"`
}

// BourseID accepts both JSON numbers and numeric strings.
type BourseID int64

func (id *BourseID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		data = []byte(s)
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("bourse id %q: %w", data, err)
	}
	*id = BourseID(v)
	return nil
}

func (id BourseID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// BourseFields are the text fields of the admin creation form.
type BourseFields struct {
	Titre                string `validate:"required,max=255"`
	Description          string
	Pays                 string `validate:"max=100"`
	Universite           string `validate:"max=255"`
	NiveauEtude          string `validate:"max=100"`
	DomaineEtude         string `validate:"max=255"`
	MontantBourse        string `validate:"max=100"`
	DateLimite           string
	Conditions           string
	ProcedurePostulation string
}

// FormValues lists the fields under the names the backend expects.
func (f BourseFields) FormValues() [][2]string {
	return [][2]string{
		{"titre", f.Titre},
		{"description", f.Description},
		{"pays", f.Pays},
		{"universite", f.Universite},
		{"niveau_etude", f.NiveauEtude},
		{"domaine_etude", f.DomaineEtude},
		{"montant_bourse", f.MontantBourse},
		{"date_limite", f.DateLimite},
		{"conditions", f.Conditions},
		{"procedure_postulation", f.ProcedurePostulation},
	}
}
