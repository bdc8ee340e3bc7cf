package service

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/gwd-records-api/internal/dto"
	"github.com/noah-isme/gwd-records-api/internal/models"
	appErrors "github.com/noah-isme/gwd-records-api/pkg/errors"
)

// DisplayDateLayout renders dates as dd/MM/yyyy.
const DisplayDateLayout = "02/01/2006"

// FormatDisplayDate renders t with DisplayDateLayout. Nil and zero times render empty.
func FormatDisplayDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DisplayDateLayout)
}

// bookkeeping keys never shown in a review.
var siteDiffIgnored = map[string]bool{"id": true, "version": true}

type siteField struct {
	key   string
	index int
}

// siteFields lists SiteDetail's JSON keys in declaration order.
var siteFields = func() []siteField {
	typ := reflect.TypeOf(models.SiteDetail{})
	fields := make([]siteField, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		key := strings.Split(typ.Field(i).Tag.Get("json"), ",")[0]
		if key == "" || key == "-" || siteDiffIgnored[key] {
			continue
		}
		fields = append(fields, siteField{key: key, index: i})
	}
	return fields
}()

// DiffSites lists every field whose normalised value differs between the
// canonical and the proposed site, in field declaration order.
func DiffSites(original, proposed models.SiteDetail) []dto.FieldChange {
	ov := reflect.ValueOf(original)
	pv := reflect.ValueOf(proposed)
	changes := make([]dto.FieldChange, 0)
	for _, f := range siteFields {
		oldValue := normalizeFieldValue(f.key, ov.Field(f.index))
		newValue := normalizeFieldValue(f.key, pv.Field(f.index))
		if oldValue != newValue {
			changes = append(changes, dto.FieldChange{Field: f.key, OldValue: oldValue, NewValue: newValue})
		}
	}
	return changes
}

// normalizeFieldValue coerces a field to its display string. Keys naming a
// date render as dd/MM/yyyy; nil renders empty.
func normalizeFieldValue(key string, v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	switch value := v.Interface().(type) {
	case time.Time:
		if strings.Contains(strings.ToLower(key), "date") {
			return FormatDisplayDate(&value)
		}
		if value.IsZero() {
			return ""
		}
		return value.Format(time.RFC3339)
	case decimal.Decimal:
		return value.String()
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	default:
		return fmt.Sprint(v.Interface())
	}
}

// MatchSite locates the canonical site a proposed site refers to: by stable id
// first, then by nameOfSite for proposals that carry no id.
func MatchSite(file *models.FileEntry, proposed models.SiteDetail) (int, error) {
	if idx := file.SiteByID(proposed.ID); idx >= 0 {
		return idx, nil
	}
	if proposed.ID == "" {
		if idx := file.SiteByName(proposed.NameOfSite); idx >= 0 {
			return idx, nil
		}
	}
	return -1, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("site %q not found in file %s", proposed.NameOfSite, file.FileNo))
}

// DiffUpdate computes the per-site review for an update against its file. It
// fails with not-found when a proposed site has no canonical match and with
// NO_CHANGES when nothing differs.
func DiffUpdate(file *models.FileEntry, update *models.PendingUpdate) ([]dto.SiteDiff, error) {
	sites := make([]dto.SiteDiff, 0, len(update.UpdatedSiteDetails))
	for _, proposed := range update.UpdatedSiteDetails {
		idx, err := MatchSite(file, proposed)
		if err != nil {
			return nil, err
		}
		original := file.SiteDetails[idx]
		changes := DiffSites(original, proposed)
		if len(changes) == 0 {
			continue
		}
		sites = append(sites, dto.SiteDiff{
			SiteID:     original.ID,
			NameOfSite: original.NameOfSite,
			Changes:    changes,
		})
	}
	if len(sites) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoChanges, "no changes found in this update")
	}
	return sites, nil
}
