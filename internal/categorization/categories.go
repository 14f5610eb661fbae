package categorization

// Uncategorized is assigned when no taxonomy entry matches.
const Uncategorized = "uncategorized"

// Category is one entry of the topic taxonomy.
type Category struct {
	ID       string
	Name     string
	NameZH   string
	Emoji    string
	Keywords []string
}

// DefaultCategories returns the taxonomy in declaration order. Matching is
// first-wins, so order matters: business terms such as 集团 take precedence
// over the broader politics and social vocabularies.
func DefaultCategories() []Category {
	return []Category{
		{
			ID:     "business",
			Name:   "Business",
			NameZH: "商业",
			Emoji:  "💼",
			Keywords: []string{
				"经济", "金融", "公司", "集团", "股", "市场", "消费", "债务", "银行", "亏损", "营收", "油价",
				"economy", "stock", "market", "bank", "loss", "profit", "revenue", "ipo",
			},
		},
		{
			ID:     "military",
			Name:   "Military",
			NameZH: "军事",
			Emoji:  "🎖️",
			Keywords: []string{
				"军", "舰", "国防", "武器", "海军", "航母", "导弹", "战",
				"military", "navy", "missile", "army", "defense",
			},
		},
		{
			ID:     "technology",
			Name:   "Technology",
			NameZH: "科技",
			Emoji:  "🤖",
			Keywords: []string{
				"科技", "技术", "创新", "研发", "人工智能", "芯片", "数字", "手机", "发布会",
				"ai", "chip", "technology", "iphone", "robot",
			},
		},
		{
			ID:     "politics",
			Name:   "Politics",
			NameZH: "政治",
			Emoji:  "🏛️",
			Keywords: []string{
				"政治", "主席", "政府", "党", "领导", "政策", "外交", "国务院",
				"president", "government", "policy", "minister", "election",
			},
		},
		{
			ID:     "weather",
			Name:   "Weather & Disasters",
			NameZH: "天气",
			Emoji:  "🌪️",
			Keywords: []string{
				"台风", "天气", "暴雨", "气象", "洪水", "地震", "灾害", "高温", "寒潮",
				"typhoon", "weather", "storm", "flood", "earthquake",
			},
		},
		{
			ID:     "social",
			Name:   "Society",
			NameZH: "社会",
			Emoji:  "👥",
			Keywords: []string{
				"教育", "医疗", "就业", "房", "民生", "社会", "疫情", "高考",
				"education", "health", "jobs", "housing",
			},
		},
		{
			ID:     "international",
			Name:   "International",
			NameZH: "国际",
			Emoji:  "🌏",
			Keywords: []string{
				"美国", "欧洲", "日本", "朝鲜", "俄罗斯", "国际", "全球",
				"us", "europe", "japan", "russia", "global", "international",
			},
		},
		{
			ID:     "fashion",
			Name:   "Fashion & Lifestyle",
			NameZH: "时尚",
			Emoji:  "👗",
			Keywords: []string{
				"时尚", "时装", "品牌", "奢侈", "明星",
				"fashion", "luxury", "brand", "runway",
			},
		},
	}
}

// ByID returns the category with the given ID.
func ByID(id string, categories []Category) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
