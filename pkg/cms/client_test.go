package cms

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNADAC(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/nadac", r.URL.Path)
		switch r.URL.Query().Get("description") {
		case "metformin":
			w.Write([]byte(`[{"ndc_description":"METFORMIN HCL 500 MG TABLET","nadac_per_unit":0.029,"otc":false,"pricing_unit":"EA"}]`))
		case "zeroprice":
			w.Write([]byte(`[{"ndc_description":"X","nadac_per_unit":0,"otc":false}]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	res, err := c.NADAC(context.Background(), "metformin", "500mg")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 0.029, res.UnitPrice)
	assert.False(t, res.IsOTC)

	res, err = c.NADAC(context.Background(), "unknown", "")
	require.NoError(t, err)
	assert.Nil(t, res)

	// Zero unit price counts as no data.
	res, err = c.NADAC(context.Background(), "zeroprice", "")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestPartDSpending(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/partd-spending", r.URL.Path)
		if r.URL.Query().Get("drug_name") == "eliquis" {
			w.Write([]byte(`[{"drug_name":"Eliquis","avg_spend_per_dosage_unit":8.93}]`))
			return
		}
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	res, err := c.PartDSpending(context.Background(), "eliquis")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 8.93, res.UnitPrice)

	// 404 maps to absence, not error.
	res, err = c.PartDSpending(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestSDUDPaginatedScan(t *testing.T) {
	t.Parallel()

	// First page holds only unusable rows; the match sits on page two.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sdud", r.URL.Path)
		assert.Equal(t, "TX", r.URL.Query().Get("state"))

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		switch offset {
		case 0:
			fmt.Fprint(w, `[{"product_name":"metformin","state":"TX","units_reimbursed":0,"total_amount_reimbursed":0},{"product_name":"metformin","state":"TX","units_reimbursed":0,"total_amount_reimbursed":12.0}]`)
		case 2:
			fmt.Fprint(w, `[{"product_name":"metformin","state":"TX","units_reimbursed":100,"total_amount_reimbursed":25.0}]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithPageSize(2))

	res, err := c.SDUD(context.Background(), "metformin", "TX")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.InDelta(t, 0.25, res.PricePerUnit, 1e-9)
	assert.Equal(t, "TX", res.State)
}

func TestSDUDExhaustion(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	res, err := c.SDUD(context.Background(), "anything", "")
	require.NoError(t, err)
	assert.Nil(t, res)
}
