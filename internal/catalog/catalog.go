// Package catalog holds the built-in table of recognized competitions,
// keyed by API-Football league ID.
package catalog

import (
	"sort"

	"github.com/fortuna/btts/internal/model"
)

var defaults = []model.Competition{
	{ID: 39, Name: "Premier League", Country: "England"},
	{ID: 40, Name: "Championship", Country: "England"},
	{ID: 41, Name: "League One", Country: "England"},
	{ID: 42, Name: "League Two", Country: "England"},
	{ID: 140, Name: "La Liga", Country: "Spain"},
	{ID: 141, Name: "La Liga 2", Country: "Spain"},
	{ID: 135, Name: "Serie A", Country: "Italy"},
	{ID: 136, Name: "Serie B", Country: "Italy"},
	{ID: 78, Name: "Bundesliga", Country: "Germany"},
	{ID: 79, Name: "Bundesliga 2", Country: "Germany"},
	{ID: 80, Name: "3. Liga", Country: "Germany"},
	{ID: 61, Name: "Ligue 1", Country: "France"},
	{ID: 62, Name: "Ligue 2", Country: "France"},
	{ID: 88, Name: "Eredivisie", Country: "Netherlands"},
	{ID: 89, Name: "Eerste Divisie", Country: "Netherlands"},
	{ID: 94, Name: "Primeira Liga", Country: "Portugal"},
	{ID: 95, Name: "Liga Portugal 2", Country: "Portugal"},
	{ID: 144, Name: "Pro League", Country: "Belgium"},
	{ID: 179, Name: "Premiership", Country: "Scotland"},
	{ID: 180, Name: "Championship", Country: "Scotland"},
	{ID: 203, Name: "Super Lig", Country: "Turkey"},
	{ID: 204, Name: "1. Lig", Country: "Turkey"},
	{ID: 197, Name: "Super League", Country: "Greece"},
	{ID: 218, Name: "Bundesliga", Country: "Austria"},
	{ID: 207, Name: "Super League", Country: "Switzerland"},
	{ID: 119, Name: "Superliga", Country: "Denmark"},
	{ID: 103, Name: "Eliteserien", Country: "Norway"},
	{ID: 113, Name: "Allsvenskan", Country: "Sweden"},
	{ID: 106, Name: "Ekstraklasa", Country: "Poland"},
	{ID: 345, Name: "First League", Country: "Czech Republic"},
	{ID: 235, Name: "Premier League", Country: "Russia"},
	{ID: 333, Name: "Premier League", Country: "Ukraine"},
	{ID: 283, Name: "Liga 1", Country: "Romania"},
	{ID: 210, Name: "1. HNL", Country: "Croatia"},
	{ID: 286, Name: "Super Liga", Country: "Serbia"},
	{ID: 71, Name: "Serie A", Country: "Brazil"},
	{ID: 72, Name: "Serie B", Country: "Brazil"},
	{ID: 128, Name: "Primera Division", Country: "Argentina"},
	{ID: 239, Name: "Primera A", Country: "Colombia"},
	{ID: 265, Name: "Primera Division", Country: "Chile"},
	{ID: 274, Name: "Primera Division", Country: "Uruguay"},
	{ID: 250, Name: "Division Profesional", Country: "Paraguay"},
	{ID: 253, Name: "MLS", Country: "USA"},
	{ID: 262, Name: "Liga MX", Country: "Mexico"},
	{ID: 233, Name: "Premier League", Country: "Egypt"},
	{ID: 288, Name: "Premier Soccer League", Country: "South Africa"},
	{ID: 200, Name: "Botola Pro", Country: "Morocco"},
	{ID: 186, Name: "Ligue 1", Country: "Algeria"},
	{ID: 202, Name: "Ligue 1", Country: "Tunisia"},
}

// Default returns the built-in competitions ordered by ID.
func Default() []model.Competition {
	out := append([]model.Competition(nil), defaults...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Index keys competitions by ID.
func Index(competitions []model.Competition) map[int]model.Competition {
	m := make(map[int]model.Competition, len(competitions))
	for _, c := range competitions {
		m[c.ID] = c
	}
	return m
}
