package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRegions(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    Regions
		ok      bool
	}{
		{"Seoul district falls back to province point", "서울특별시 마포구 월드컵로 243", Regions{Land: LandCapital, Temperature: "11B10101"}, true},
		{"Gyeonggi city match", "경기도 가평군 청평면 호반로 1", Regions{Land: LandCapital, Temperature: "11B20404"}, true},
		{"Gyeonggi Gwangju is disambiguated", "경기 광주시 남한산성면", Regions{Land: LandCapital, Temperature: "11B20702"}, true},
		{"Gangwon east coast", "강원특별자치도 강릉시 사천면", Regions{Land: LandGangwonEast, Temperature: "11D20501"}, true},
		{"Gangwon Goseong is east", "강원도 고성군 토성면", Regions{Land: LandGangwonEast, Temperature: "11D20402"}, true},
		{"Gangwon inland", "강원도 홍천군 서면", Regions{Land: LandGangwonWest, Temperature: "11D10302"}, true},
		{"long-form province name", "충청북도 단양군 단양읍", Regions{Land: LandChungbuk, Temperature: "11C10202"}, true},
		{"Gyeongnam Goseong", "경상남도 고성군 회화면", Regions{Land: LandGyeongnam, Temperature: "11H20404"}, true},
		{"Jeju Seogwipo", "제주특별자치도 서귀포시 표선면", Regions{Land: LandJeju, Temperature: "11G00401"}, true},
		{"unknown district uses province point", "전라남도 어딘가군", Regions{Land: LandJeonnam, Temperature: "21F20801"}, true},
		{"no province keyword", "Somewhere Street 1", Regions{}, false},
		{"empty", "", Regions{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveRegions(tt.address)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLandRegionFor(t *testing.T) {
	tests := map[string]string{
		"11B10101": LandCapital,
		"11A00101": LandCapital,
		"11D10301": LandGangwonWest,
		"11D20501": LandGangwonEast,
		"11C10301": LandChungbuk,
		"11C20401": LandChungnam,
		"11F10201": LandJeonbuk,
		"21F10501": LandJeonbuk,
		"11F20501": LandJeonnam,
		"21F20801": LandJeonnam,
		"11H10701": LandGyeongbuk,
		"11E00101": LandGyeongbuk,
		"11H20201": LandGyeongnam,
		"11G00201": LandJeju,
		"bogus":    LandCapital,
	}
	for code, want := range tests {
		t.Run(code, func(t *testing.T) {
			assert.Equal(t, want, LandRegionFor(code))
		})
	}
}

func TestTempRegionCode(t *testing.T) {
	code, ok := TempRegionCode("부산")
	assert.True(t, ok)
	assert.Equal(t, "11H20201", code)

	_, ok = TempRegionCode("서울특별시")
	assert.False(t, ok)
}
