package classify

import (
	"regexp"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

type typePatterns struct {
	docType  domain.DocType
	content  []*regexp.Regexp
	filename []*regexp.Regexp
	subtypes []subtypePattern
}

type subtypePattern struct {
	name string
	re   *regexp.Regexp
}

func re(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

// patternSets drive the regex estimator. First matching subtype wins.
var patternSets = []typePatterns{
	{
		docType: domain.TypeNorms,
		content: []*regexp.Regexp{
			re(`свод\s+правил`), re(`СП\s*\d`), re(`СНиП\s*\d`), re(`ГОСТ\s*\d`),
			re(`нормативн`), re(`настоящий\s+свод`), re(`область\s+применения`),
		},
		filename: []*regexp.Regexp{re(`sp[_\-\s]?\d`), re(`snip`), re(`gost`), re(`сп[_\-\s]?\d`), re(`гост`), re(`снип`)},
		subtypes: []subtypePattern{
			{"gost", re(`ГОСТ|gost`)},
			{"snip", re(`СНиП|snip|снип`)},
			{"sp", re(`СП\s*\d|свод\s+правил|sp[_\-\s]?\d`)},
		},
	},
	{
		docType: domain.TypePPR,
		content: []*regexp.Regexp{
			re(`проект\s+производства\s+работ`), re(`ППР`), re(`технологическ(ая|ие)\s+карт`),
			re(`последовательность\s+работ`), re(`стройгенплан`),
		},
		filename: []*regexp.Regexp{re(`ppr`), re(`ппр`), re(`техкарт`)},
		subtypes: []subtypePattern{
			{"tk", re(`технологическ(ая|ие)\s+карт|техкарт`)},
			{"ppr", re(`ППР|проект\s+производства|ppr`)},
		},
	},
	{
		docType: domain.TypeSmeta,
		content: []*regexp.Regexp{
			re(`локальн(ая|ый)\s+смет`), re(`сметн(ая|ый)`), re(`ГЭСН`), re(`ФЕР`), re(`ТЕР`),
			re(`расценк`), re(`накладн(ые|ых)\s+расход`),
		},
		filename: []*regexp.Regexp{re(`smeta`), re(`смет`), re(`gesn`), re(`fer`)},
		subtypes: []subtypePattern{
			{"gesn", re(`ГЭСН|gesn`)},
			{"fer", re(`ФЕР|fer`)},
			{"ter", re(`ТЕР|ter`)},
			{"local", re(`локальн`)},
			{"summary", re(`сводн`)},
		},
	},
	{
		docType: domain.TypeProjects,
		content: []*regexp.Regexp{
			re(`рабочая\s+документ`), re(`проектн(ая|ой)\s+документ`), re(`чертеж`),
			re(`пояснительная\s+записка`), re(`спецификац`),
		},
		filename: []*regexp.Regexp{re(`proekt`), re(`проект`), re(`чертеж`), re(`drawing`)},
		subtypes: []subtypePattern{
			{"drawings", re(`чертеж|drawing`)},
			{"specifications", re(`спецификац`)},
			{"pto", re(`ПТО`)},
		},
	},
	{
		docType: domain.TypeEstimates,
		content: []*regexp.Regexp{
			re(`ведомость\s+объемов`), re(`объем(ы|ов)\s+работ`), re(`калькуляц`),
		},
		filename: []*regexp.Regexp{re(`vedomost`), re(`ведомост`), re(`estimate`)},
	},
	{
		docType: domain.TypeContracts,
		content: []*regexp.Regexp{
			re(`договор\s+(подряда|поставки)`), re(`заказчик`), re(`подрядчик`),
			re(`предмет\s+договора`), re(`обязательства\s+сторон`),
		},
		filename: []*regexp.Regexp{re(`dogovor`), re(`договор`), re(`contract`), re(`контракт`)},
	},
	{
		docType: domain.TypeFinance,
		content: []*regexp.Regexp{
			re(`счет[\s-]фактур`), re(`платежн(ое|ый)`), re(`акт\s+выполненных\s+работ`),
			re(`КС-2`), re(`КС-3`),
		},
		filename: []*regexp.Regexp{re(`ks-?[23]`), re(`кс-?[23]`), re(`invoice`), re(`акт`)},
	},
	{
		docType: domain.TypeSafety,
		content: []*regexp.Regexp{
			re(`охран(а|ы)\s+труда`), re(`техника\s+безопасности`), re(`инструктаж`),
			re(`средства\s+индивидуальной\s+защиты`),
		},
		filename: []*regexp.Regexp{re(`ot[_\-]`), re(`безопасн`), re(`safety`)},
	},
}

// templates feed the semantic estimator; one short prototype per type.
var semanticTemplates = map[string]string{
	string(domain.TypeNorms):     "Свод правил, строительные нормы, ГОСТ, обязательные требования к проектированию и строительству",
	string(domain.TypePPR):       "Проект производства работ, технологические карты, последовательность и организация строительных работ",
	string(domain.TypeSmeta):     "Локальная смета, расценки ГЭСН ФЕР ТЕР, сметная стоимость работ и материалов",
	string(domain.TypeProjects):  "Проектная и рабочая документация, чертежи, пояснительная записка, спецификации",
	string(domain.TypeEstimates): "Ведомость объемов работ, калькуляция затрат",
	string(domain.TypeContracts): "Договор строительного подряда, обязательства заказчика и подрядчика",
	string(domain.TypeFinance):   "Акты выполненных работ КС-2 КС-3, счета и платежные документы",
	string(domain.TypeSafety):    "Охрана труда, техника безопасности, инструктажи на строительной площадке",
}
