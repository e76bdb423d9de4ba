package apifootball

import (
	jsoniter "github.com/json-iterator/go"
)

// Raw response shapes. Only the fields the job reads are declared.

type fixturesEnvelope struct {
	Results  int           `json:"results"`
	Response []fixtureItem `json:"response"`
}

type fixtureItem struct {
	Fixture struct {
		ID     int    `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Long  string `json:"long"`
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		Country string `json:"country"`
		Season  int    `json:"season"`
	} `json:"league"`
	Teams struct {
		Home teamRef `json:"home"`
		Away teamRef `json:"away"`
	} `json:"teams"`
}

type teamRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type statisticsResponse struct {
	Form  jsoniter.RawMessage `json:"form"`
	Goals struct {
		For     goalsSplit `json:"for"`
		Against goalsSplit `json:"against"`
	} `json:"goals"`
}

type goalsSplit struct {
	Average struct {
		Home  jsoniter.RawMessage `json:"home"`
		Away  jsoniter.RawMessage `json:"away"`
		Total jsoniter.RawMessage `json:"total"`
	} `json:"average"`
}
