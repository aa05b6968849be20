package service

import (
	"net/http"

	"travelchat/internal/model"
)

// BuildResponse assembles the response envelope and its HTTP status. On
// error the filters and listings are always empty.
func BuildResponse(filters []string, listings []model.PublicListing, err error) (int, model.ChatResponse) {
	if err != nil {
		kind, status, message := classify(err)
		return status, model.ChatResponse{
			Filters:  []string{},
			Listings: []model.PublicListing{},
			Error:    &model.ErrorBody{Type: kind, Message: message},
		}
	}

	if filters == nil {
		filters = []string{}
	}
	if listings == nil {
		listings = []model.PublicListing{}
	}
	return http.StatusOK, model.ChatResponse{Filters: filters, Listings: listings}
}
