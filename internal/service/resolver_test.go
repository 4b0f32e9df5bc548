package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momo-proxy-backend/internal/domain"
)

func TestDestinationResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	countries := new(MockCountryRepo)
	countries.On("ListActive", ctx).Return([]domain.Country{
		{ID: 1, ISOCode: "GN", PhoneCode: "224", IsActive: true},
		{ID: 2, ISOCode: "US", PhoneCode: "+1", IsActive: true},
		{ID: 3, ISOCode: "JM", PhoneCode: "1876", IsActive: true},
	}, nil)
	countries.On("GetByISO", ctx, "SN").Return(&domain.Country{ID: 4, ISOCode: "SN", IsActive: true}, nil)
	countries.On("GetByISO", ctx, "ML").Return(&domain.Country{ID: 5, ISOCode: "ML", IsActive: false}, nil)
	countries.On("GetByISO", ctx, "ZZ").Return(nil, domain.ErrNotFound)

	r := NewDestinationResolver(countries)

	sn := "sn"
	got, err := r.Resolve(ctx, &sn, "224600000001")
	require.NoError(t, err)
	assert.Equal(t, "SN", got.ISOCode)

	got, err = r.Resolve(ctx, nil, "224600000001")
	require.NoError(t, err)
	assert.Equal(t, "GN", got.ISOCode)

	got, err = r.Resolve(ctx, nil, "18765550100")
	require.NoError(t, err)
	assert.Equal(t, "JM", got.ISOCode, "longest prefix wins")

	got, err = r.Resolve(ctx, nil, "12025550100")
	require.NoError(t, err)
	assert.Equal(t, "US", got.ISOCode)

	_, err = r.Resolve(ctx, nil, "33600000001")
	assert.ErrorIs(t, err, domain.ErrNoCountry)

	ml := "ML"
	_, err = r.Resolve(ctx, &ml, "223600000001")
	assert.ErrorIs(t, err, domain.ErrNoCountry)

	zz := "ZZ"
	_, err = r.Resolve(ctx, &zz, "223600000001")
	assert.ErrorIs(t, err, domain.ErrNoCountry)
}
