package plaid

import "context"

type categoriesService struct {
	client *Client
}

func (s *categoriesService) Get(ctx context.Context) (*CategoriesResponse, error) {
	const route = "/categories/get"

	var resp CategoriesResponse
	if err := s.client.do(ctx, route, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
