package automation

import (
	"fmt"

	"github.com/bytedance/sonic"
)

const checkRadioJS = `(args) => {
	const radios = Array.from(document.querySelectorAll('input[type="radio"]'));
	const radio = radios.find(r => r.value === args.value);
	if (!radio) return false;
	radio.click();
	radio.checked = true;
	radio.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

const setInputJS = `(args) => {
	const matches = (el) => {
		const label = el.labels && el.labels.length ? el.labels[0].textContent : '';
		if (args.types.includes(el.type)) return true;
		const text = [el.placeholder, el.getAttribute('aria-label'), label]
			.filter(Boolean).join(' ').toLowerCase();
		return args.hints.some(h => text.includes(h));
	};
	const input = Array.from(document.querySelectorAll('input, textarea')).find(matches);
	if (!input) return false;
	const setter = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(input), 'value').set;
	setter.call(input, args.value);
	input.dispatchEvent(new Event('input', { bubbles: true }));
	input.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

const selectOptionJS = `(args) => {
	const want = args.value.toLowerCase();
	const selects = Array.from(document.querySelectorAll('select'));
	const near = selects.filter(s => {
		const label = s.labels && s.labels.length ? s.labels[0].textContent : '';
		return label.toLowerCase().includes(args.label);
	});
	for (const select of near.concat(selects)) {
		const option = Array.from(select.options).find(o => o.text.toLowerCase().includes(want));
		if (!option) continue;
		select.value = option.value;
		select.dispatchEvent(new Event('change', { bubbles: true }));
		if (window.jQuery) {
			window.jQuery(select).trigger('change.select2');
		}
		return true;
	}
	return false;
}`

// scrollMiddleJS brings lazily rendered widgets below the fold into view.
const scrollMiddleJS = `(() => {
	window.scrollTo(0, document.body.scrollHeight / 2);
	return true;
})()`

// invoke renders a call of fn with args encoded as a JSON literal.
func invoke(fn string, args any) (string, error) {
	encoded, err := sonic.MarshalString(args)
	if err != nil {
		return "", fmt.Errorf("failed to encode script args: %w", err)
	}
	return fmt.Sprintf("(%s)(%s)", fn, encoded), nil
}
