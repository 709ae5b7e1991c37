package fetcher

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"earnings-watch/internal/earnings"
)

func TestExtractBloomberg(t *testing.T) {
	page := `<html><body><div><span class="nextAnnouncementDate__abc">3/8/2024</span></div></body></html>`
	got, err := ExtractBloomberg([]byte(page))
	if err != nil {
		t.Fatalf("不应报错: %v", err)
	}
	want := earnings.DateTime{Date: earnings.NewDate(2024, 3, 8), Time: earnings.Unknown}
	if got == nil || *got != want {
		t.Fatalf("期望 %v, 实际 %v", want, got)
	}

	got, err = ExtractBloomberg([]byte(`<html><body><span class="price">1</span></body></html>`))
	if err != nil || got != nil {
		t.Fatalf("无日期时应返回 nil, nil; 实际 %v, %v", got, err)
	}

	if _, err := ExtractBloomberg([]byte(`<span class="nextAnnouncementDate">soon</span>`)); err == nil {
		t.Fatal("无法解析的日期应报错")
	}
}

func TestExtractBloombergIgnoresNestedMarkup(t *testing.T) {
	page := `<span class="nextAnnouncementDate__x">3/7/2024<b>Est.</b></span>`
	got, err := ExtractBloomberg([]byte(page))
	if err != nil {
		t.Fatalf("嵌套标签不应影响日期解析: %v", err)
	}
	want := earnings.DateTime{Date: earnings.NewDate(2024, 3, 7), Time: earnings.Unknown}
	if got == nil || *got != want {
		t.Fatalf("期望 %v, 实际 %v", want, got)
	}

	got, err = ExtractBloomberg([]byte(`<span class="nextAnnouncementDate__x"><b>Est.</b></span>`))
	if err != nil || got != nil {
		t.Fatalf("只有子元素文本时应返回 nil, nil; 实际 %v, %v", got, err)
	}
}

func finvizPage(cell string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="snapshot-table2"><tbody>`)
	for row := 1; row <= 12; row++ {
		b.WriteString("<tr>")
		for col := 1; col <= 12; col++ {
			if row == 11 && col == 6 {
				fmt.Fprintf(&b, "<td><b>%s</b></td>", cell)
				continue
			}
			fmt.Fprintf(&b, "<td><b>r%dc%d</b></td>", row, col)
		}
		b.WriteString("</tr>")
	}
	b.WriteString(`</tbody></table></body></html>`)
	return b.String()
}

func TestFinVizExtract(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 2, 20, 15, 0, 0, 0, time.UTC) }
	f := &FinViz{Now: now}

	got, err := f.Extract([]byte(finvizPage("Mar 07 AMC")))
	if err != nil {
		t.Fatalf("不应报错: %v", err)
	}
	want := earnings.DateTime{Date: earnings.NewDate(2024, 3, 7), Time: earnings.AfterMarket}
	if got == nil || *got != want {
		t.Fatalf("期望 %v, 实际 %v", want, got)
	}

	got, err = f.Extract([]byte(finvizPage("Feb 1 BMO")))
	if err != nil {
		t.Fatalf("不应报错: %v", err)
	}
	if got.Date != earnings.NewDate(2024, 2, 1) || got.Time != earnings.BeforeMarket {
		t.Fatalf("近期日期应保留当年: %v", got)
	}

	got, err = f.Extract([]byte(finvizPage("Jan 5")))
	if err != nil {
		t.Fatalf("不应报错: %v", err)
	}
	if got.Date != earnings.NewDate(2025, 1, 5) || got.Time != earnings.Unknown {
		t.Fatalf("超过 30 天前的日期应推到下一年: %v", got)
	}

	got, err = f.Extract([]byte(finvizPage("-")))
	if err != nil || got != nil {
		t.Fatalf("空单元格应返回 nil, nil; 实际 %v, %v", got, err)
	}

	if _, err := f.Extract([]byte(finvizPage("Foo 12"))); err == nil {
		t.Fatal("非法月份应报错")
	}
}

func TestExtractNasdaq(t *testing.T) {
	page := `<div id="two_column_main_content_reportdata">Apple Inc. is expected to report earnings on 5/2/2024 after market close. The report will be for the fiscal Quarter.</div>`
	got, err := ExtractNasdaq([]byte(page))
	if err != nil {
		t.Fatalf("不应报错: %v", err)
	}
	want := earnings.DateTime{Date: earnings.NewDate(2024, 5, 2), Time: earnings.AfterMarket}
	if got == nil || *got != want {
		t.Fatalf("期望 %v, 实际 %v", want, got)
	}

	got, err = ExtractNasdaq([]byte(`<div id="two_column_main_content_reportdata">No upcoming report.</div>`))
	if err != nil || got != nil {
		t.Fatalf("无日期时应返回 nil, nil; 实际 %v, %v", got, err)
	}
}

func TestExtractYahoo(t *testing.T) {
	ts := time.Date(2024, 3, 7, 20, 0, 0, 0, time.UTC).Unix()
	page := fmt.Sprintf("<script>\n(function (root) {\nroot.App.main = {\"context\":{\"dispatcher\":{\"stores\":{\"QuoteSummaryStore\":{\"calendarEvents\":{\"earnings\":{\"earningsDate\":[{\"raw\":%d,\"fmt\":\"2024-03-07\"}]}}}}}}};\n}(this));\n</script>", ts)

	got, err := ExtractYahoo([]byte(page))
	if err != nil {
		t.Fatalf("不应报错: %v", err)
	}
	want := earnings.DateTime{Date: earnings.NewDate(2024, 3, 7), Time: earnings.Unknown}
	if got == nil || *got != want {
		t.Fatalf("期望 %v, 实际 %v", want, got)
	}

	empty := "root.App.main = {\"context\":{\"dispatcher\":{\"stores\":{\"QuoteSummaryStore\":{\"calendarEvents\":{\"earnings\":{\"earningsDate\":[]}}}}}}};\n"
	got, err = ExtractYahoo([]byte(empty))
	if err != nil || got != nil {
		t.Fatalf("缺少日期时应返回 nil, nil; 实际 %v, %v", got, err)
	}

	if _, err := ExtractYahoo([]byte("<html></html>")); err == nil {
		t.Fatal("缺少 bootstrap 时应报错")
	}
	if _, err := ExtractYahoo([]byte("root.App.main = {broken;")); err == nil {
		t.Fatal("JSON 损坏时应报错")
	}
}

func zacksPage(cell string) string {
	return `<html><body><section id="stock_key_earnings"><table><tbody>
<tr><td>Exp EPS</td><td>1.2</td></tr>
<tr><td>Most Accurate Est</td><td>1.3</td></tr>
<tr><td>ESP</td><td>0.5%</td></tr>
<tr><td>Earnings ESP</td><td>0.5%</td></tr>
<tr><td>Earnings Date</td><td>` + cell + `</td></tr>
</tbody></table></section></body></html>`
}

func TestExtractZacks(t *testing.T) {
	got, err := ExtractZacks([]byte(zacksPage(`<sup class="spl_sup_text">*BMO</sup> 3/8/24`)))
	if err != nil {
		t.Fatalf("不应报错: %v", err)
	}
	want := earnings.DateTime{Date: earnings.NewDate(2024, 3, 8), Time: earnings.BeforeMarket}
	if got == nil || *got != want {
		t.Fatalf("期望 %v, 实际 %v", want, got)
	}

	got, err = ExtractZacks([]byte(zacksPage(`3/7/24`)))
	if err != nil {
		t.Fatalf("不应报错: %v", err)
	}
	if got.Time != earnings.Unknown || got.Date != earnings.NewDate(2024, 3, 7) {
		t.Fatalf("无 sup 时应为 Unknown: %v", got)
	}

	got, err = ExtractZacks([]byte(zacksPage(`<sup>*AMC</sup>`)))
	if err != nil || got != nil {
		t.Fatalf("无日期文本时应返回 nil, nil; 实际 %v, %v", got, err)
	}

	_, err = ExtractZacks([]byte(`<html><body><p>blocked</p></body></html>`))
	if !errors.Is(err, ErrSelectorNotFound) {
		t.Fatalf("缺少表格时应返回 ErrSelectorNotFound, 实际 %v", err)
	}

	if _, err := ExtractZacks([]byte(zacksPage(`NA`))); err == nil {
		t.Fatal("无法解析的日期应报错")
	}
}

func TestSelectSources(t *testing.T) {
	all, err := SelectSources(nil, nil)
	if err != nil {
		t.Fatalf("默认来源不应报错: %v", err)
	}
	if len(all) != len(DefaultEnabled) {
		t.Fatalf("期望 %d 个默认来源, 实际 %d", len(DefaultEnabled), len(all))
	}

	picked, err := SelectSources([]string{"zacks", "ZACKS", "nasdaq"}, nil)
	if err != nil {
		t.Fatalf("不应报错: %v", err)
	}
	if len(picked) != 2 || picked[0].Name != SourceZacks || picked[1].Name != SourceNasdaq {
		t.Fatalf("选择结果错误: %+v", picked)
	}

	if _, err := SelectSources([]string{"reuters"}, nil); err == nil {
		t.Fatal("未知来源应报错")
	}
}

func TestSourceURL(t *testing.T) {
	src := Source{URLTemplate: "https://www.bloomberg.com/quote/{}:US"}
	if got := src.URL(" aapl "); got != "https://www.bloomberg.com/quote/AAPL:US" {
		t.Fatalf("URL 生成错误: %s", got)
	}
	if got := src.URL("brk/b"); got != "https://www.bloomberg.com/quote/BRK%2FB:US" {
		t.Fatalf("symbol 应被转义: %s", got)
	}
}
