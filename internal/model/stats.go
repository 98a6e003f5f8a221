package model

import "strings"

type Stats struct {
	Bourses     int
	Universites int
	Pays        int
	Niveaux     int
}

func ComputeStats(bourses []Bourse) Stats {
	universites := map[string]struct{}{}
	pays := map[string]struct{}{}
	niveaux := map[string]struct{}{}

	for _, b := range bourses {
		addKey(universites, b.Universite)
		addKey(pays, b.Pays)
		addKey(niveaux, b.NiveauEtude)
	}

	return Stats{
		Bourses:     len(bourses),
		Universites: len(universites),
		Pays:        len(pays),
		Niveaux:     len(niveaux),
	}
}

func addKey(set map[string]struct{}, value string) {
	key := strings.ToLower(strings.TrimSpace(value))
	if key == "" {
		return
	}
	set[key] = struct{}{}
}
