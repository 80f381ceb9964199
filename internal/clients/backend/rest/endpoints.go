package rest

import (
	"context"
	"moviehub/proj/internal/domain/models"
	"net/http"
	"net/url"
)

type tokenResponse struct {
	Token string `json:"token"`
}

func (c *Client) Login(ctx context.Context, creds models.Credentials) (string, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, creds, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) Register(ctx context.Context, reg models.Registration) (string, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, reg, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := c.do(ctx, http.MethodGet, "/profiles", nil, nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (c *Client) CreateProfile(ctx context.Context, in models.ProfileInput) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodPost, "/profiles", nil, in, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) UpdateProfile(ctx context.Context, id string, in models.ProfileInput) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodPut, "/profiles/"+url.PathEscape(id), nil, in, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/profiles/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListMovies(ctx context.Context, query url.Values) (*models.MoviePage, error) {
	var page models.MoviePage
	if err := c.do(ctx, http.MethodGet, "/movies", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) CreateMovie(ctx context.Context, in models.MovieInput) (*models.Movie, error) {
	var movie models.Movie
	if err := c.do(ctx, http.MethodPost, "/movies", nil, in, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (c *Client) UpdateMovie(ctx context.Context, id string, in models.MovieInput) (*models.Movie, error) {
	var movie models.Movie
	if err := c.do(ctx, http.MethodPut, "/movies/"+url.PathEscape(id), nil, in, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (c *Client) DeleteMovie(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/movies/"+url.PathEscape(id), nil, nil, nil)
}
