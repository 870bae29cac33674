package cms

import (
	"context"
	"errors"
	"net/url"
	"strconv"
)

func (c *httpClient) NADAC(ctx context.Context, name, strength string) (*NADACResult, error) {
	q := url.Values{}
	q.Set("description", name)
	if strength != "" {
		q.Set("strength", strength)
	}
	q.Set("limit", "1")

	var rows []NADACResult
	if err := c.getJSON(ctx, "/nadac", q, &rows); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(rows) == 0 || rows[0].UnitPrice <= 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *httpClient) PartDSpending(ctx context.Context, name string) (*SpendingResult, error) {
	q := url.Values{}
	q.Set("drug_name", name)
	q.Set("limit", "1")

	var rows []SpendingResult
	if err := c.getJSON(ctx, "/partd-spending", q, &rows); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(rows) == 0 || rows[0].UnitPrice <= 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// sdudRow is the wire shape of an SDUD claims row.
type sdudRow struct {
	ProductName           string  `json:"product_name"`
	State                 string  `json:"state"`
	UnitsReimbursed       float64 `json:"units_reimbursed"`
	TotalAmountReimbursed float64 `json:"total_amount_reimbursed"`
}

func (c *httpClient) SDUD(ctx context.Context, name, state string) (*RegionalResult, error) {
	for page := 0; page < maxSDUDPages; page++ {
		q := url.Values{}
		q.Set("product_name", name)
		if state != "" {
			q.Set("state", state)
		}
		q.Set("limit", strconv.Itoa(c.pageSize))
		q.Set("offset", strconv.Itoa(page*c.pageSize))

		var rows []sdudRow
		if err := c.getJSON(ctx, "/sdud", q, &rows); err != nil {
			if errors.Is(err, errNotFound) {
				return nil, nil
			}
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil // exhausted
		}

		for _, row := range rows {
			if row.UnitsReimbursed <= 0 || row.TotalAmountReimbursed <= 0 {
				continue
			}
			return &RegionalResult{
				PricePerUnit: row.TotalAmountReimbursed / row.UnitsReimbursed,
				State:        row.State,
			}, nil
		}

		if len(rows) < c.pageSize {
			return nil, nil // short page: no more data
		}
	}
	return nil, nil
}
