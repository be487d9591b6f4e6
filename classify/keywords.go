package classify

// Keyword tables, lowercase. Order inside a table does not matter: matching picks the
// earliest occurrence in the label and, on a tie, the longest keyword.

// styleMarkers end a style name ("新款", "A型", "2024系列") or are complete
// silhouette words on their own.
var styleMarkers = []string{
	"系列", "款", "型", "版",
	"短袖", "长袖", "中袖", "七分袖", "无袖", "背心", "吊带",
	"连衣裙", "半身裙", "卫衣", "外套", "夹克", "衬衫", "t恤",
	"风衣", "毛衣", "针织衫", "短裤", "长裤", "阔腿裤", "牛仔裤",
	"style", "series", "model", "version", "edition",
}

var colorKeywords = []string{
	"黑色", "白色", "红色", "蓝色", "绿色", "黄色", "紫色", "粉色", "灰色",
	"棕色", "咖啡色", "米色", "卡其色", "橙色", "银色", "金色", "藏青",
	"黑", "白", "红", "蓝", "绿", "黄", "紫", "粉", "灰", "棕", "杏",
	"black", "white", "red", "blue", "green", "yellow", "purple", "pink",
	"grey", "gray", "brown", "beige", "khaki", "orange", "silver", "gold", "navy",
}

var sizeKeywords = []string{
	"均码", "尺码", "码", "大号", "中号", "小号", "加大", "加肥", "尺寸",
	"xxxl", "xxl", "xl", "xs", "cm", "size",
}

// allKeywords is the fixed set used for the shared-keyword similarity tier.
var allKeywords = func() []string {
	out := make([]string, 0, len(styleMarkers)+len(colorKeywords)+len(sizeKeywords))
	out = append(out, styleMarkers...)
	out = append(out, colorKeywords...)
	out = append(out, sizeKeywords...)
	return out
}()

// separators are tried in this order; the first one present in the label wins.
var separators = []string{"-", "/", "_", " ", ":", "：", "，"}
