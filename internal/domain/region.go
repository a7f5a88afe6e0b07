package domain

import "strings"

// Land outlook regions.
const (
	LandCapital     = "11B00000" // Seoul, Incheon, Gyeonggi
	LandGangwonWest = "11D10000"
	LandGangwonEast = "11D20000"
	LandChungnam    = "11C20000" // Daejeon, Sejong, Chungnam
	LandChungbuk    = "11C10000"
	LandJeonnam     = "11F20000" // Gwangju, Jeonnam
	LandJeonbuk     = "11F10000"
	LandGyeongbuk   = "11H10000" // Daegu, Gyeongbuk
	LandGyeongnam   = "11H20000" // Busan, Ulsan, Gyeongnam
	LandJeju        = "11G00000"
)

// province is a first-level administrative area with the address spellings
// that select it, its land region, and a representative temperature point.
type province struct {
	key     string
	aliases []string
	land    string
	temp    string
}

var provinces = []province{
	{key: "서울", aliases: []string{"서울"}, land: LandCapital, temp: "서울"},
	{key: "부산", aliases: []string{"부산"}, land: LandGyeongnam, temp: "부산"},
	{key: "대구", aliases: []string{"대구"}, land: LandGyeongbuk, temp: "대구"},
	{key: "인천", aliases: []string{"인천"}, land: LandCapital, temp: "인천"},
	{key: "광주", aliases: []string{"광주"}, land: LandJeonnam, temp: "광주(전남)"},
	{key: "대전", aliases: []string{"대전"}, land: LandChungnam, temp: "대전"},
	{key: "울산", aliases: []string{"울산"}, land: LandGyeongnam, temp: "울산"},
	{key: "세종", aliases: []string{"세종"}, land: LandChungnam, temp: "세종"},
	{key: "경기", aliases: []string{"경기"}, land: LandCapital, temp: "수원"},
	{key: "강원", aliases: []string{"강원"}, land: LandGangwonWest, temp: "춘천"},
	{key: "충북", aliases: []string{"충북", "충청북"}, land: LandChungbuk, temp: "청주"},
	{key: "충남", aliases: []string{"충남", "충청남"}, land: LandChungnam, temp: "천안"},
	{key: "전북", aliases: []string{"전북", "전라북"}, land: LandJeonbuk, temp: "전주"},
	{key: "전남", aliases: []string{"전남", "전라남"}, land: LandJeonnam, temp: "목포"},
	{key: "경북", aliases: []string{"경북", "경상북"}, land: LandGyeongbuk, temp: "포항"},
	{key: "경남", aliases: []string{"경남", "경상남"}, land: LandGyeongnam, temp: "창원"},
	{key: "제주", aliases: []string{"제주"}, land: LandJeju, temp: "제주"},
}

// gangwonEast lists the districts east of the Taebaek range, which KMA
// forecasts as a separate land region.
var gangwonEast = []string{"강릉", "속초", "동해", "삼척", "태백", "고성", "양양"}

// ambiguousDistricts disambiguates district names that exist in more than
// one province.
var ambiguousDistricts = map[string]map[string]string{
	"광주": {"경기": "광주(경기)", "전남": "광주(전남)"},
	"고성": {"강원": "고성(강원)", "경남": "고성(경남)"},
}

// ResolveRegions maps a Korean road or lot address to outlook region codes.
// The district selects the temperature point when it is known; otherwise the
// province's representative point is used. ok is false when no province
// keyword is found.
func ResolveRegions(address string) (Regions, bool) {
	fields := strings.Fields(address)
	for i, f := range fields {
		p, found := matchProvince(f)
		if !found {
			continue
		}

		var district string
		if i+1 < len(fields) {
			district = fields[i+1]
		}

		r := Regions{Land: p.land, Temperature: tempRegions[p.temp]}
		if p.key == "강원" && district != "" {
			for _, east := range gangwonEast {
				if strings.Contains(district, east) {
					r.Land = LandGangwonEast
					break
				}
			}
		}
		if code, ok := lookupDistrict(p.key, district); ok {
			r.Temperature = code
		}
		return r, true
	}
	return Regions{}, false
}

func matchProvince(field string) (province, bool) {
	for _, p := range provinces {
		for _, alias := range p.aliases {
			if strings.HasPrefix(field, alias) {
				return p, true
			}
		}
	}
	return province{}, false
}

func lookupDistrict(provinceKey, district string) (string, bool) {
	if district == "" {
		return "", false
	}
	candidates := []string{district}
	for _, suffix := range []string{"시", "군", "구"} {
		if trimmed := strings.TrimSuffix(district, suffix); trimmed != district && trimmed != "" {
			candidates = append(candidates, trimmed)
		}
	}
	for _, name := range candidates {
		if byProvince, ok := ambiguousDistricts[name]; ok {
			name = byProvince[provinceKey]
		}
		if code, ok := tempRegions[name]; ok {
			return code, true
		}
	}
	return "", false
}

// LandRegionFor derives the land outlook region that contains a temperature
// outlook point. Unknown prefixes fall back to the capital region.
func LandRegionFor(tempRegion string) string {
	switch {
	case strings.HasPrefix(tempRegion, "11A"), strings.HasPrefix(tempRegion, "11B"):
		return LandCapital
	case strings.HasPrefix(tempRegion, "11D1"):
		return LandGangwonWest
	case strings.HasPrefix(tempRegion, "11D2"):
		return LandGangwonEast
	case strings.HasPrefix(tempRegion, "11C1"):
		return LandChungbuk
	case strings.HasPrefix(tempRegion, "11C2"):
		return LandChungnam
	case strings.HasPrefix(tempRegion, "11F1"), strings.HasPrefix(tempRegion, "21F1"):
		return LandJeonbuk
	case strings.HasPrefix(tempRegion, "11F2"), strings.HasPrefix(tempRegion, "21F2"):
		return LandJeonnam
	case strings.HasPrefix(tempRegion, "11H1"), strings.HasPrefix(tempRegion, "11E"):
		return LandGyeongbuk
	case strings.HasPrefix(tempRegion, "11H2"):
		return LandGyeongnam
	case strings.HasPrefix(tempRegion, "11G"):
		return LandJeju
	default:
		return LandCapital
	}
}

// TempRegionCode returns the temperature outlook code for a named point.
func TempRegionCode(name string) (string, bool) {
	code, ok := tempRegions[name]
	return code, ok
}

// tempRegions maps temperature outlook point names to region codes.
var tempRegions = map[string]string{
	"백령도":    "11A00101",
	"서울":     "11B10101",
	"과천":     "11B10102",
	"광명":     "11B10103",
	"강화":     "11B20101",
	"김포":     "11B20102",
	"인천":     "11B20201",
	"시흥":     "11B20202",
	"안산":     "11B20203",
	"부천":     "11B20204",
	"의정부":    "11B20301",
	"고양":     "11B20302",
	"양주":     "11B20304",
	"파주":     "11B20305",
	"동두천":    "11B20401",
	"연천":     "11B20402",
	"포천":     "11B20403",
	"가평":     "11B20404",
	"구리":     "11B20501",
	"남양주":    "11B20502",
	"양평":     "11B20503",
	"하남":     "11B20504",
	"수원":     "11B20601",
	"안양":     "11B20602",
	"오산":     "11B20603",
	"화성":     "11B20604",
	"성남":     "11B20605",
	"평택":     "11B20606",
	"의왕":     "11B20609",
	"군포":     "11B20610",
	"안성":     "11B20611",
	"용인":     "11B20612",
	"이천":     "11B20701",
	"광주(경기)": "11B20702",
	"여주":     "11B20703",
	"충주":     "11C10101",
	"진천":     "11C10102",
	"음성":     "11C10103",
	"제천":     "11C10201",
	"단양":     "11C10202",
	"청주":     "11C10301",
	"보은":     "11C10302",
	"괴산":     "11C10303",
	"증평":     "11C10304",
	"추풍령":    "11C10401",
	"영동":     "11C10402",
	"옥천":     "11C10403",
	"서산":     "11C20101",
	"태안":     "11C20102",
	"당진":     "11C20103",
	"홍성":     "11C20104",
	"보령":     "11C20201",
	"서천":     "11C20202",
	"천안":     "11C20301",
	"아산":     "11C20302",
	"예산":     "11C20303",
	"대전":     "11C20401",
	"공주":     "11C20402",
	"계룡":     "11C20403",
	"세종":     "11C20404",
	"부여":     "11C20501",
	"청양":     "11C20502",
	"금산":     "11C20601",
	"논산":     "11C20602",
	"철원":     "11D10101",
	"화천":     "11D10102",
	"인제":     "11D10201",
	"양구":     "11D10202",
	"춘천":     "11D10301",
	"홍천":     "11D10302",
	"원주":     "11D10401",
	"횡성":     "11D10402",
	"영월":     "11D10501",
	"정선":     "11D10502",
	"평창":     "11D10503",
	"대관령":    "11D20201",
	"태백":     "11D20301",
	"속초":     "11D20401",
	"고성(강원)": "11D20402",
	"양양":     "11D20403",
	"강릉":     "11D20501",
	"동해":     "11D20601",
	"삼척":     "11D20602",
	"울릉도":    "11E00101",
	"독도":     "11E00102",
	"전주":     "11F10201",
	"익산":     "11F10202",
	"정읍":     "11F10203",
	"완주":     "11F10204",
	"장수":     "11F10301",
	"무주":     "11F10302",
	"진안":     "11F10303",
	"남원":     "11F10401",
	"임실":     "11F10402",
	"순창":     "11F10403",
	"군산":     "21F10501",
	"김제":     "21F10502",
	"고창":     "21F10601",
	"부안":     "21F10602",
	"함평":     "21F20101",
	"영광":     "21F20102",
	"진도":     "21F20201",
	"완도":     "11F20301",
	"해남":     "11F20302",
	"강진":     "11F20303",
	"장흥":     "11F20304",
	"여수":     "11F20401",
	"광양":     "11F20402",
	"고흥":     "11F20403",
	"보성":     "11F20404",
	"순천시":    "11F20405",
	"광주(전남)": "11F20501",
	"장성":     "11F20502",
	"나주":     "11F20503",
	"담양":     "11F20504",
	"화순":     "11F20505",
	"구례":     "11F20601",
	"곡성":     "11F20602",
	"순천":     "11F20603",
	"흑산도":    "11F20701",
	"목포":     "21F20801",
	"영암":     "21F20802",
	"신안":     "21F20803",
	"무안":     "21F20804",
	"성산":     "11G00101",
	"제주":     "11G00201",
	"성판악":    "11G00302",
	"서귀포":    "11G00401",
	"고산":     "11G00501",
	"이어도":    "11G00601",
	"추자도":    "11G00800",
	"울진":     "11H10101",
	"영덕":     "11H10102",
	"포항":     "11H10201",
	"경주":     "11H10202",
	"문경":     "11H10301",
	"상주":     "11H10302",
	"예천":     "11H10303",
	"영주":     "11H10401",
	"봉화":     "11H10402",
	"영양":     "11H10403",
	"안동":     "11H10501",
	"의성":     "11H10502",
	"청송":     "11H10503",
	"김천":     "11H10601",
	"구미":     "11H10602",
	"군위":     "11H10707",
	"고령":     "11H10604",
	"성주":     "11H10605",
	"대구":     "11H10701",
	"영천":     "11H10702",
	"경산":     "11H10703",
	"청도":     "11H10704",
	"칠곡":     "11H10705",
	"울산":     "11H20101",
	"양산":     "11H20102",
	"부산":     "11H20201",
	"창원":     "11H20301",
	"김해":     "11H20304",
	"통영":     "11H20401",
	"사천":     "11H20402",
	"거제":     "11H20403",
	"고성(경남)": "11H20404",
	"남해":     "11H20405",
	"함양":     "11H20501",
	"거창":     "11H20502",
	"합천":     "11H20503",
	"밀양":     "11H20601",
	"의령":     "11H20602",
	"함안":     "11H20603",
	"창녕":     "11H20604",
	"진주":     "11H20701",
	"산청":     "11H20703",
	"하동":     "11H20704",
}
