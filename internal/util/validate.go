package util

import (
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// PhoneTag validates mainland mobile numbers
	PhoneTag = "cnphone"
	// IDNumberTag validates 15 and 18 digit resident identity numbers
	IDNumberTag = "cnidnumber"
)

var (
	phonePattern    = regexp.MustCompile(`^1[0-9]{10}$`)
	idNumber15      = regexp.MustCompile(`^[0-9]{15}$`)
	idNumber18      = regexp.MustCompile(`^[0-9]{17}[0-9Xx]$`)
	defaultValidate = newValidate()
)

// provinceCodes maps the two leading digits of an identity number to a region
var provinceCodes = map[string]string{
	"11": "北京", "12": "天津", "13": "河北", "14": "山西", "15": "内蒙古",
	"21": "辽宁", "22": "吉林", "23": "黑龙江",
	"31": "上海", "32": "江苏", "33": "浙江", "34": "安徽", "35": "福建", "36": "江西", "37": "山东",
	"41": "河南", "42": "湖北", "43": "湖南", "44": "广东", "45": "广西", "46": "海南",
	"50": "重庆", "51": "四川", "52": "贵州", "53": "云南", "54": "西藏",
	"61": "陕西", "62": "甘肃", "63": "青海", "64": "宁夏", "65": "新疆",
	"71": "台湾", "81": "香港", "82": "澳门", "91": "国外",
}

func newValidate() *validator.Validate {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterValidations adds the cnphone and cnidnumber tags to v
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation(PhoneTag, func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation(IDNumberTag, func(fl validator.FieldLevel) bool {
		return validIDNumber(fl.Field().String())
	})
}

// IsPhone reports whether s is an 11 digit mobile number starting with 1
func IsPhone(s string) bool {
	return defaultValidate.Var(s, PhoneTag) == nil
}

// IsIDNumber checks the region prefix and embedded birth date of an identity
// number. The trailing check digit is not verified.
func IsIDNumber(s string) bool {
	return defaultValidate.Var(s, IDNumberTag) == nil
}

func validIDNumber(s string) bool {
	if len(s) < 2 {
		return false
	}
	if _, ok := provinceCodes[s[:2]]; !ok {
		return false
	}

	switch {
	case idNumber15.MatchString(s):
		// Old format carries a two digit year in the 1900s
		year, _ := strconv.Atoi(s[6:8])
		return validDate(1900+year, s[8:10], s[10:12])
	case idNumber18.MatchString(s):
		year, _ := strconv.Atoi(s[6:10])
		return validDate(year, s[10:12], s[12:14])
	default:
		return false
	}
}

func validDate(year int, month, day string) bool {
	m, err := strconv.Atoi(month)
	if err != nil {
		return false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return false
	}
	t := time.Date(year, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == m && t.Day() == d
}
