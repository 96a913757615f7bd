package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/foodorder/internal/config"
	inErrors "github.com/Alturino/foodorder/internal/errors"
	"github.com/Alturino/foodorder/internal/kvstore"
	"github.com/Alturino/foodorder/internal/log"
)

const SelectionKey = "delivery_location"

type DeliveryLocation struct {
	District    string          `json:"district"`
	Village     string          `json:"village"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
}

type Village struct {
	Name        string          `json:"name"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
}

type District struct {
	Name     string    `json:"name"`
	Villages []Village `json:"villages"`
}

// Directory is the flat fee table of the delivery area.
type Directory struct {
	districts []District
	fees      map[string]map[string]decimal.Decimal
}

func NewDirectory(districts []config.District) *Directory {
	d := &Directory{
		districts: make([]District, 0, len(districts)),
		fees:      make(map[string]map[string]decimal.Decimal, len(districts)),
	}
	for _, cd := range districts {
		district := District{Name: cd.Name, Villages: make([]Village, 0, len(cd.Villages))}
		if _, ok := d.fees[cd.Name]; !ok {
			d.fees[cd.Name] = map[string]decimal.Decimal{}
		}
		for _, cv := range cd.Villages {
			fee := decimal.NewFromInt(cv.DeliveryFee)
			district.Villages = append(district.Villages, Village{Name: cv.Name, DeliveryFee: fee})
			d.fees[cd.Name][cv.Name] = fee
		}
		d.districts = append(d.districts, district)
	}
	return d
}

func (d *Directory) Districts() []District {
	return append([]District{}, d.districts...)
}

func (d *Directory) Lookup(district, village string) (DeliveryLocation, error) {
	fee, ok := d.fees[district][village]
	if !ok {
		return DeliveryLocation{}, fmt.Errorf(
			"%w: district=%s village=%s",
			inErrors.ErrUnknownLocation,
			district,
			village,
		)
	}
	return DeliveryLocation{District: district, Village: village, DeliveryFee: fee}, nil
}

// Selector holds the delivery location chosen on one device.
type Selector struct {
	directory *Directory
	store     kvstore.Store
}

func NewSelector(directory *Directory, store kvstore.Store) Selector {
	return Selector{directory: directory, store: store}
}

// Select resolves the fee from the directory and persists the selection.
// A write failure is logged and the resolved location is still returned.
func (s Selector) Select(c context.Context, district, village string) (DeliveryLocation, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Selector Select").
		Str(log.KeyStoreKey, SelectionKey).
		Logger()

	loc, err := s.directory.Lookup(district, village)
	if err != nil {
		logger.Error().Err(err).Msg(err.Error())
		return DeliveryLocation{}, err
	}

	b, err := json.Marshal(loc)
	if err == nil {
		err = s.store.Set(c, SelectionKey, string(b))
	}
	if err != nil {
		err = fmt.Errorf("failed persisting delivery location with error=%w", err)
		logger.Warn().Err(err).Msg(err.Error())
	}
	logger.Debug().Any(log.KeyLocation, loc).Msg("selected delivery location")
	return loc, nil
}

// Current returns nil when nothing is selected or the stored value is
// unreadable.
func (s Selector) Current(c context.Context) *DeliveryLocation {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Selector Current").
		Str(log.KeyStoreKey, SelectionKey).
		Logger()

	raw, err := s.store.Get(c, SelectionKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		err = fmt.Errorf("failed reading delivery location with error=%w", err)
		logger.Warn().Err(err).Msg(err.Error())
		return nil
	}

	loc := DeliveryLocation{}
	if err := json.Unmarshal([]byte(raw), &loc); err != nil {
		err = fmt.Errorf("failed unmarshaling delivery location with error=%w", err)
		logger.Warn().Err(err).Msg(err.Error())
		return nil
	}
	return &loc
}

// Resolve looks the stored selection up again in the directory, so the fee is
// the one configured now and not the one captured by Select. It returns nil
// and no error when nothing is selected.
func (s Selector) Resolve(c context.Context) (*DeliveryLocation, error) {
	selected := s.Current(c)
	if selected == nil {
		return nil, nil
	}
	loc, err := s.directory.Lookup(selected.District, selected.Village)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (s Selector) Clear(c context.Context) {
	if err := s.store.Remove(c, SelectionKey); err != nil {
		err = fmt.Errorf("failed removing delivery location with error=%w", err)
		zerolog.Ctx(c).
			Warn().
			Err(err).
			Str(log.KeyTag, "Selector Clear").
			Msg(err.Error())
	}
}
